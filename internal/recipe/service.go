package recipe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/content"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/internal/subscription"
	"github.com/hn-son/let-him-cook-backend/internal/validation"
	"github.com/hn-son/let-him-cook-backend/models"
)

const (
	defaultRecipesLimit = 10
	maxRecipesLimit     = 100
)

// Remover удаляет рецепт вместе с комментариями и ссылками из избранного
type Remover interface {
	DeleteRecipe(ctx context.Context, recipe *models.Recipe) error
}

type Input struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"required,max=5000"`
	Ingredients []models.Ingredient `json:"ingredients" validate:"required,min=1,dive"`
	Steps       []string            `json:"steps" validate:"required,min=1,dive,required,max=2000"`
	CookingTime *int                `json:"cookingTime" validate:"omitempty,min=1,max=10080"`
	Difficulty  models.Difficulty   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ImageURL    string              `json:"imageUrl" validate:"omitempty,url"`
}

// ImageGuard отклоняет imageUrl, указывающий на чужой объект хранилища
type ImageGuard interface {
	CheckImageURL(ownerID, imageURL string) error
}

// Patch - частичное обновление рецепта; nil означает "не менять".
// Время приготовления сбрасывается только через ClearCookingTime.
type Patch struct {
	Title       *string              `json:"title" validate:"omitempty,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=5000"`
	Ingredients *[]models.Ingredient `json:"ingredients" validate:"omitempty,min=1,dive"`
	Steps       *[]string            `json:"steps" validate:"omitempty,min=1,dive,required,max=2000"`
	CookingTime *int                 `json:"cookingTime" validate:"omitempty,min=1,max=10080"`
	Difficulty  *models.Difficulty   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ImageURL    *string              `json:"imageUrl"`

	ClearCookingTime bool `json:"clearCookingTime"`
}

type Option func(*Service)

func WithImageGuard(guard ImageGuard) Option {
	return func(s *Service) { s.images = guard }
}

type Service struct {
	store   RecipeStorage
	remover Remover
	events  subscription.Publisher
	images  ImageGuard
	now     func() time.Time
}

func NewService(store RecipeStorage, remover Remover, events subscription.Publisher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		remover: remover,
		events:  events,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) checkImage(ownerID, imageURL string) error {
	if s.images == nil || imageURL == "" {
		return nil
	}
	return s.images.CheckImageURL(ownerID, imageURL)
}

func (s *Service) Create(ctx context.Context, actor *policy.Actor, in Input) (*models.Recipe, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}

	in = sanitizeInput(in)
	if in.Difficulty == "" {
		in.Difficulty = models.DifficultyMedium
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkImage(actor.ID, in.ImageURL); err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.store.CreateRecipe(ctx, &models.Recipe{
		Title:       in.Title,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Steps:       in.Steps,
		CookingTime: in.CookingTime,
		Difficulty:  in.Difficulty,
		ImageURL:    in.ImageURL,
		AuthorID:    actor.ID,
		// рецепты администраторов не проходят модерацию
		IsApproved: actor.IsAdmin(),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, apperror.Wrap(err, "failed to create recipe")
	}
	return created, nil
}

// Get возвращает рецепт, если он одобрен или зритель - автор либо администратор
func (s *Service) Get(ctx context.Context, viewer *policy.Actor, id string) (*models.Recipe, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(viewer, r) {
		return nil, apperror.NotFound("recipe not found")
	}
	return r, nil
}

func (s *Service) visible(viewer *policy.Actor, r *models.Recipe) bool {
	if r.IsApproved {
		return true
	}
	return viewer != nil && (viewer.ID == r.AuthorID || viewer.IsAdmin())
}

func (s *Service) load(ctx context.Context, id string) (*models.Recipe, error) {
	r, err := s.store.GetRecipeByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load recipe")
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, page models.Page) ([]*models.Recipe, error) {
	return s.list(ctx, Filter{Approved: boolPtr(true), Page: page})
}

func (s *Service) ByIngredients(ctx context.Context, names []string) ([]*models.Recipe, error) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return nil, apperror.InvalidInput("at least one ingredient is required")
	}
	return s.list(ctx, Filter{
		Approved:        boolPtr(true),
		IngredientNames: cleaned,
		Page:            models.Page{Limit: maxRecipesLimit},
	})
}

func (s *Service) Pending(ctx context.Context, actor *policy.Actor) ([]*models.Recipe, error) {
	if err := policy.CanModerate(actor); err != nil {
		return nil, err
	}
	recipes, err := s.store.ListRecipes(ctx, Filter{Approved: boolPtr(false)})
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list recipes")
	}
	return recipes, nil
}

// Mine - все рецепты текущего пользователя, включая неодобренные
func (s *Service) Mine(ctx context.Context, actor *policy.Actor) ([]*models.Recipe, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	recipes, err := s.store.ListRecipes(ctx, Filter{AuthorID: actor.ID})
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list recipes")
	}
	return recipes, nil
}

// AuthoredBy - рецепты автора в том виде, в каком их может видеть зритель
func (s *Service) AuthoredBy(ctx context.Context, viewer *policy.Actor, authorID string) ([]*models.Recipe, error) {
	filter := Filter{AuthorID: authorID}
	if viewer == nil || (viewer.ID != authorID && !viewer.IsAdmin()) {
		filter.Approved = boolPtr(true)
	}
	recipes, err := s.store.ListRecipes(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list recipes")
	}
	return recipes, nil
}

func (s *Service) Search(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.InvalidInput("search query must not be empty")
	}
	page = page.Clamp(defaultRecipesLimit, maxRecipesLimit)

	recipes, err := s.store.SearchText(ctx, query, page)
	if errors.Is(err, storage.ErrNoTextIndex) {
		recipes, err = s.store.SearchTitle(ctx, query, page)
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to search recipes")
	}
	return recipes, nil
}

func (s *Service) Update(ctx context.Context, actor *policy.Actor, id string, patch Patch) (*models.Recipe, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModify(actor, existing.AuthorID); err != nil {
		return nil, err
	}

	patch = sanitizePatch(patch)
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	if patch.ClearCookingTime && patch.CookingTime != nil {
		return nil, apperror.InvalidInput("cookingTime and clearCookingTime are mutually exclusive")
	}
	if patch.ImageURL != nil && *patch.ImageURL != "" {
		if err := validation.Var("imageUrl", *patch.ImageURL, "url"); err != nil {
			return nil, err
		}
		// изображение должно лежать в каталоге автора рецепта, а не редактора
		if *patch.ImageURL != existing.ImageURL {
			if err := s.checkImage(existing.AuthorID, *patch.ImageURL); err != nil {
				return nil, err
			}
		}
	}

	updated := *existing
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Ingredients != nil {
		updated.Ingredients = *patch.Ingredients
	}
	if patch.Steps != nil {
		updated.Steps = *patch.Steps
	}
	if patch.CookingTime != nil {
		updated.CookingTime = patch.CookingTime
	}
	if patch.ClearCookingTime {
		updated.CookingTime = nil
	}
	if patch.Difficulty != nil {
		updated.Difficulty = *patch.Difficulty
	}
	if patch.ImageURL != nil {
		updated.ImageURL = *patch.ImageURL
	}
	// правка автором возвращает рецепт на модерацию
	if !actor.IsAdmin() {
		updated.IsApproved = false
	}
	updated.UpdatedAt = s.now()

	saved, err := s.store.UpdateRecipe(ctx, &updated)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to update recipe")
	}
	return saved, nil
}

// Approve идемпотентен: повторное одобрение не публикует событие
func (s *Service) Approve(ctx context.Context, actor *policy.Actor, id string) (*models.Recipe, error) {
	if err := policy.CanModerate(actor); err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsApproved {
		return existing, nil
	}

	approved, err := s.store.SetApproved(ctx, id, true)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to approve recipe")
	}

	if s.events != nil {
		s.events.Publish(subscription.TopicRecipeApproved, subscription.Event{
			RecipeID: approved.ID,
			ActorID:  actor.ID,
		})
	}
	return approved, nil
}

func (s *Service) Delete(ctx context.Context, actor *policy.Actor, id string) error {
	if err := policy.IsAuthenticated(actor); err != nil {
		return err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanModify(actor, existing.AuthorID); err != nil {
		return err
	}
	if err := s.remover.DeleteRecipe(ctx, existing); err != nil {
		return apperror.Wrap(err, "failed to delete recipe")
	}
	return nil
}

func (s *Service) list(ctx context.Context, filter Filter) ([]*models.Recipe, error) {
	filter.Page = filter.Page.Clamp(defaultRecipesLimit, maxRecipesLimit)
	recipes, err := s.store.ListRecipes(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to list recipes")
	}
	return recipes, nil
}

func sanitizeInput(in Input) Input {
	in.Title = content.PlainText(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Ingredients = sanitizeIngredients(in.Ingredients)
	in.Steps = sanitizeSteps(in.Steps)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

func sanitizePatch(p Patch) Patch {
	if p.Title != nil {
		title := content.PlainText(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		p.Description = &description
	}
	if p.Ingredients != nil {
		ingredients := sanitizeIngredients(*p.Ingredients)
		p.Ingredients = &ingredients
	}
	if p.Steps != nil {
		steps := sanitizeSteps(*p.Steps)
		p.Steps = &steps
	}
	if p.ImageURL != nil {
		url := strings.TrimSpace(*p.ImageURL)
		p.ImageURL = &url
	}
	return p
}

func sanitizeIngredients(in []models.Ingredient) []models.Ingredient {
	out := make([]models.Ingredient, len(in))
	for i, ing := range in {
		out[i] = models.Ingredient{
			Name:     content.PlainText(ing.Name),
			Quantity: content.PlainText(ing.Quantity),
			Unit:     content.PlainText(ing.Unit),
		}
	}
	return out
}

func sanitizeSteps(in []string) []string {
	out := make([]string, len(in))
	for i, step := range in {
		out[i] = content.PlainText(step)
	}
	return out
}

func boolPtr(v bool) *bool {
	return &v
}
