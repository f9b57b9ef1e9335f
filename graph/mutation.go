package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/auth"
	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/user"
	"github.com/hn-son/let-him-cook-backend/models"
)

type registerInput struct {
	Username string
	Email    string
	Password string
}

type loginInput struct {
	Email    string
	Password string
}

type updateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *string
}

type ingredientInput struct {
	Name     string
	Quantity string
	Unit     string
}

type recipeInput struct {
	Title       string
	Description string
	Ingredients []ingredientInput
	Steps       []string
	CookingTime *int32
	Difficulty  *string
	ImageURL    *string
}

type recipeUpdateInput struct {
	Title       *string
	Description *string
	Ingredients *[]ingredientInput
	Steps       *[]string
	CookingTime *int32
	Difficulty  *string
	ImageURL    *string

	ClearCookingTime *bool
}

func toIngredients(in []ingredientInput) []models.Ingredient {
	out := make([]models.Ingredient, len(in))
	for i, ing := range in {
		out[i] = models.Ingredient{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}
	}
	return out
}

func toInt(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func (in recipeInput) toInput() recipe.Input {
	out := recipe.Input{
		Title:       in.Title,
		Description: in.Description,
		Ingredients: toIngredients(in.Ingredients),
		Steps:       in.Steps,
		CookingTime: toInt(in.CookingTime),
	}
	if in.Difficulty != nil {
		out.Difficulty = models.Difficulty(*in.Difficulty)
	}
	if in.ImageURL != nil {
		out.ImageURL = *in.ImageURL
	}
	return out
}

func (in recipeUpdateInput) toPatch() recipe.Patch {
	p := recipe.Patch{
		Title:       in.Title,
		Description: in.Description,
		Steps:       in.Steps,
		CookingTime: toInt(in.CookingTime),
		ImageURL:    in.ImageURL,

		ClearCookingTime: in.ClearCookingTime != nil && *in.ClearCookingTime,
	}
	if in.Ingredients != nil {
		ingredients := toIngredients(*in.Ingredients)
		p.Ingredients = &ingredients
	}
	if in.Difficulty != nil {
		d := models.Difficulty(*in.Difficulty)
		p.Difficulty = &d
	}
	return p
}

func (r *Resolver) Register(ctx context.Context, args struct{ Input registerInput }) (*authPayloadResolver, error) {
	payload, err := r.UserService.Register(ctx, user.RegisterInput{
		Username: args.Input.Username,
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, present(err)
	}
	return &authPayloadResolver{r: r, p: payload}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct{ Input loginInput }) (*authPayloadResolver, error) {
	payload, err := r.UserService.Login(ctx, args.Input.Email, args.Input.Password)
	if err != nil {
		return nil, present(err)
	}
	return &authPayloadResolver{r: r, p: payload}, nil
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateUserInput
}) (*userResolver, error) {
	patch := user.Patch{
		Username: args.Input.Username,
		Email:    args.Input.Email,
		Password: args.Input.Password,
	}
	if args.Input.Role != nil {
		role := models.Role(*args.Input.Role)
		patch.Role = &role
	}

	u, err := r.UserService.UpdateProfile(ctx, auth.ActorFromContext(ctx), string(args.ID), patch)
	if err != nil {
		return nil, present(err)
	}
	return r.newUser(u), nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID graphql.ID }) (*deleteUserResolver, error) {
	res, err := r.UserService.DeleteAccount(ctx, auth.ActorFromContext(ctx), string(args.ID))
	if err != nil {
		return nil, present(err)
	}
	return &deleteUserResolver{res: res}, nil
}

func (r *Resolver) CreateRecipe(ctx context.Context, args struct{ Input recipeInput }) (*recipeResolver, error) {
	rec, err := r.RecipeService.Create(ctx, auth.ActorFromContext(ctx), args.Input.toInput())
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipe(rec), nil
}

func (r *Resolver) UpdateRecipe(ctx context.Context, args struct {
	ID    graphql.ID
	Input recipeUpdateInput
}) (*recipeResolver, error) {
	rec, err := r.RecipeService.Update(ctx, auth.ActorFromContext(ctx), string(args.ID), args.Input.toPatch())
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipe(rec), nil
}

func (r *Resolver) DeleteRecipe(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.RecipeService.Delete(ctx, auth.ActorFromContext(ctx), string(args.ID)); err != nil {
		return false, present(err)
	}
	return true, nil
}

func (r *Resolver) ApproveRecipe(ctx context.Context, args struct{ ID graphql.ID }) (*recipeResolver, error) {
	rec, err := r.RecipeService.Approve(ctx, auth.ActorFromContext(ctx), string(args.ID))
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipe(rec), nil
}

func (r *Resolver) RequestImageUpload(ctx context.Context, args struct{ ContentType string }) (*imageUploadResolver, error) {
	if r.Images == nil {
		return nil, apperror.InvalidState("image uploads are not configured")
	}
	upload, err := r.Images.PresignUpload(ctx, auth.ActorFromContext(ctx), args.ContentType)
	if err != nil {
		return nil, present(err)
	}
	return &imageUploadResolver{u: upload}, nil
}

func (r *Resolver) AddToFavorites(ctx context.Context, args struct{ RecipeID graphql.ID }) (*userResolver, error) {
	u, err := r.FavoriteService.Add(ctx, auth.ActorFromContext(ctx), string(args.RecipeID))
	if err != nil {
		return nil, present(err)
	}
	return r.newUser(u), nil
}

func (r *Resolver) RemoveFromFavorites(ctx context.Context, args struct{ RecipeID graphql.ID }) (*userResolver, error) {
	u, err := r.FavoriteService.Remove(ctx, auth.ActorFromContext(ctx), string(args.RecipeID))
	if err != nil {
		return nil, present(err)
	}
	return r.newUser(u), nil
}

func (r *Resolver) AddComment(ctx context.Context, args struct {
	RecipeID graphql.ID
	Content  string
}) (*commentResolver, error) {
	c, err := r.CommentService.Add(ctx, auth.ActorFromContext(ctx), string(args.RecipeID), args.Content)
	if err != nil {
		return nil, present(err)
	}
	return &commentResolver{r: r, c: c}, nil
}

func (r *Resolver) UpdateComment(ctx context.Context, args struct {
	ID      graphql.ID
	Content string
}) (*commentResolver, error) {
	c, err := r.CommentService.Update(ctx, auth.ActorFromContext(ctx), string(args.ID), args.Content)
	if err != nil {
		return nil, present(err)
	}
	return &commentResolver{r: r, c: c}, nil
}

func (r *Resolver) DeleteComment(ctx context.Context, args struct{ ID graphql.ID }) (*deleteCommentResolver, error) {
	res, err := r.CommentService.Delete(ctx, auth.ActorFromContext(ctx), string(args.ID))
	if err != nil {
		return nil, present(err)
	}
	return &deleteCommentResolver{res: res}, nil
}

func (r *Resolver) DeleteMultipleComments(ctx context.Context, args struct{ IDs []graphql.ID }) (*bulkDeleteResolver, error) {
	ids := make([]string, len(args.IDs))
	for i, id := range args.IDs {
		ids[i] = string(id)
	}
	res, err := r.CommentService.DeleteMany(ctx, auth.ActorFromContext(ctx), ids)
	if err != nil {
		return nil, present(err)
	}
	return &bulkDeleteResolver{res: res}, nil
}

func (r *Resolver) DeleteUserComments(ctx context.Context, args struct{ UserID graphql.ID }) (*bulkDeleteResolver, error) {
	res, err := r.CommentService.DeleteByAuthor(ctx, auth.ActorFromContext(ctx), string(args.UserID))
	if err != nil {
		return nil, present(err)
	}
	return &bulkDeleteResolver{res: res}, nil
}

func (r *Resolver) Reconcile(ctx context.Context) (*reconcileResolver, error) {
	rep, err := r.Cascade.Reconcile(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		return nil, present(err)
	}
	return &reconcileResolver{rep: rep}, nil
}
