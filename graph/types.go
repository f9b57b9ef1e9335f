package graph

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/hn-son/let-him-cook-backend/internal/auth"
	"github.com/hn-son/let-him-cook-backend/internal/comment"
	"github.com/hn-son/let-him-cook-backend/internal/content"
	"github.com/hn-son/let-him-cook-backend/internal/media"
	"github.com/hn-son/let-him-cook-backend/internal/user"
	"github.com/hn-son/let-him-cook-backend/models"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type userResolver struct {
	r *Resolver
	u *models.User
}

func (r *Resolver) newUser(u *models.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{r: r, u: u}
}

func (u *userResolver) ID() graphql.ID    { return graphql.ID(u.u.ID) }
func (u *userResolver) Username() string  { return u.u.Username }
func (u *userResolver) Email() string     { return u.u.Email }
func (u *userResolver) Role() string      { return string(u.u.Role) }
func (u *userResolver) CreatedAt() string { return formatTime(u.u.CreatedAt) }

// FavoriteRecipes пропускает удаленные рецепты
func (u *userResolver) FavoriteRecipes(ctx context.Context) ([]*recipeResolver, error) {
	recipes, err := u.r.FavoriteService.Resolve(ctx, u.u)
	if err != nil {
		return nil, present(err)
	}
	return u.r.newRecipes(ctx, recipes), nil
}

func (u *userResolver) Recipes(ctx context.Context) ([]*recipeResolver, error) {
	recipes, err := u.r.RecipeService.AuthoredBy(ctx, auth.ActorFromContext(ctx), u.u.ID)
	if err != nil {
		return nil, present(err)
	}
	return u.r.newRecipes(ctx, recipes), nil
}

type ingredientResolver struct {
	i models.Ingredient
}

func (i ingredientResolver) Name() string     { return i.i.Name }
func (i ingredientResolver) Quantity() string { return i.i.Quantity }
func (i ingredientResolver) Unit() string     { return i.i.Unit }

type recipeResolver struct {
	r   *Resolver
	rec *models.Recipe
}

func (r *Resolver) newRecipe(rec *models.Recipe) *recipeResolver {
	if rec == nil {
		return nil
	}
	return &recipeResolver{r: r, rec: rec}
}

func (r *Resolver) newRecipes(ctx context.Context, recipes []*models.Recipe) []*recipeResolver {
	remember(ctx, recipes)
	out := make([]*recipeResolver, len(recipes))
	for i, rec := range recipes {
		out[i] = r.newRecipe(rec)
	}
	return out
}

func (r *recipeResolver) ID() graphql.ID          { return graphql.ID(r.rec.ID) }
func (r *recipeResolver) Title() string           { return r.rec.Title }
func (r *recipeResolver) Description() string     { return r.rec.Description }
func (r *recipeResolver) DescriptionHTML() string { return content.Markdown(r.rec.Description) }
func (r *recipeResolver) Steps() []string         { return r.rec.Steps }
func (r *recipeResolver) Difficulty() string      { return string(r.rec.Difficulty) }
func (r *recipeResolver) IsApproved() bool        { return r.rec.IsApproved }
func (r *recipeResolver) CreatedAt() string       { return formatTime(r.rec.CreatedAt) }
func (r *recipeResolver) UpdatedAt() string       { return formatTime(r.rec.UpdatedAt) }

func (r *recipeResolver) Ingredients() []ingredientResolver {
	out := make([]ingredientResolver, len(r.rec.Ingredients))
	for i, ing := range r.rec.Ingredients {
		out[i] = ingredientResolver{i: ing}
	}
	return out
}

func (r *recipeResolver) CookingTime() *int32 {
	if r.rec.CookingTime == nil {
		return nil
	}
	minutes := int32(*r.rec.CookingTime)
	return &minutes
}

func (r *recipeResolver) ImageURL() *string {
	if r.rec.ImageURL == "" {
		return nil
	}
	return &r.rec.ImageURL
}

func (r *recipeResolver) Author(ctx context.Context) (*userResolver, error) {
	u, err := r.r.loadUser(ctx, r.rec.AuthorID)
	if err != nil {
		return nil, present(err)
	}
	return r.r.newUser(u), nil
}

func (r *recipeResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := r.r.CommentService.ListByRecipe(ctx, r.rec.ID)
	if err != nil {
		return nil, present(err)
	}
	return r.r.newComments(comments), nil
}

type commentResolver struct {
	r *Resolver
	c *models.Comment
}

func (r *Resolver) newComments(comments []*models.Comment) []*commentResolver {
	out := make([]*commentResolver, len(comments))
	for i, c := range comments {
		out[i] = &commentResolver{r: r, c: c}
	}
	return out
}

func (c *commentResolver) ID() graphql.ID    { return graphql.ID(c.c.ID) }
func (c *commentResolver) Content() string   { return c.c.Content }
func (c *commentResolver) CreatedAt() string { return formatTime(c.c.CreatedAt) }
func (c *commentResolver) UpdatedAt() string { return formatTime(c.c.UpdatedAt) }

func (c *commentResolver) Author(ctx context.Context) (*userResolver, error) {
	u, err := c.r.loadUser(ctx, c.c.AuthorID)
	if err != nil {
		return nil, present(err)
	}
	return c.r.newUser(u), nil
}

func (c *commentResolver) Recipe(ctx context.Context) (*recipeResolver, error) {
	rec, err := c.r.loadRecipe(ctx, c.c.RecipeID)
	if err != nil {
		return nil, present(err)
	}
	return c.r.newRecipe(rec), nil
}

type authPayloadResolver struct {
	r *Resolver
	p *user.AuthPayload
}

func (p *authPayloadResolver) Token() string       { return p.p.Token }
func (p *authPayloadResolver) User() *userResolver { return p.r.newUser(p.p.User) }

type authCheckResolver struct {
	r *Resolver
	c *user.AuthCheck
}

func (c *authCheckResolver) IsAuthenticated() bool { return c.c.IsAuthenticated }
func (c *authCheckResolver) Message() string       { return c.c.Message }
func (c *authCheckResolver) User() *userResolver   { return c.r.newUser(c.c.User) }

type deleteCommentResolver struct {
	res *comment.DeleteResult
}

func (d *deleteCommentResolver) Success() bool     { return d.res.Success }
func (d *deleteCommentResolver) Message() string   { return d.res.Message }
func (d *deleteCommentResolver) DeletedBy() string { return string(d.res.DeletedBy) }

type bulkDeleteResolver struct {
	res *comment.BulkDeleteResult
}

func (b *bulkDeleteResolver) Success() bool       { return b.res.Success }
func (b *bulkDeleteResolver) Message() string     { return b.res.Message }
func (b *bulkDeleteResolver) DeletedCount() int32 { return int32(b.res.DeletedCount) }

func (b *bulkDeleteResolver) TargetUser() *string {
	if b.res.TargetUser == "" {
		return nil
	}
	return &b.res.TargetUser
}

type deleteUserResolver struct {
	res *user.DeleteResult
}

func (d *deleteUserResolver) Success() bool          { return d.res.Success }
func (d *deleteUserResolver) Message() string        { return d.res.Message }
func (d *deleteUserResolver) DeletedRecipes() int32  { return int32(d.res.Report.DeletedRecipes) }
func (d *deleteUserResolver) DeletedComments() int32 { return int32(d.res.Report.DeletedComments) }

type reconcileResolver struct {
	rep *models.ReconcileReport
}

func (r *reconcileResolver) RemovedRecipes() int32  { return int32(r.rep.RemovedRecipes) }
func (r *reconcileResolver) RemovedComments() int32 { return int32(r.rep.RemovedComments) }
func (r *reconcileResolver) PrunedFavorites() int32 { return int32(r.rep.PrunedFavorites) }

type imageUploadResolver struct {
	u *media.Upload
}

func (i *imageUploadResolver) UploadURL() string { return i.u.UploadURL }
func (i *imageUploadResolver) ImageURL() string  { return i.u.ImageURL }
func (i *imageUploadResolver) ExpiresAt() string { return formatTime(i.u.ExpiresAt) }
