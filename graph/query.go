package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/hn-son/let-him-cook-backend/internal/auth"
	"github.com/hn-son/let-him-cook-backend/models"
)

type pageArgs struct {
	Limit  *int32
	Offset *int32
}

func (a pageArgs) page() models.Page {
	var p models.Page
	if a.Limit != nil {
		p.Limit = int(*a.Limit)
	}
	if a.Offset != nil {
		p.Offset = int(*a.Offset)
	}
	return p
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.UserService.Me(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		return nil, present(err)
	}
	return r.newUser(u), nil
}

func (r *Resolver) User(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	u, err := r.loadUser(ctx, string(args.ID))
	if err != nil {
		return nil, present(err)
	}
	return r.newUser(u), nil
}

func (r *Resolver) Users(ctx context.Context, args pageArgs) ([]*userResolver, error) {
	users, err := r.UserService.List(ctx, auth.ActorFromContext(ctx), args.page())
	if err != nil {
		return nil, present(err)
	}
	out := make([]*userResolver, len(users))
	for i, u := range users {
		out[i] = r.newUser(u)
	}
	return out, nil
}

// CheckAuth никогда не возвращает ошибку: неудача описывается в ответе
func (r *Resolver) CheckAuth(ctx context.Context) *authCheckResolver {
	return &authCheckResolver{r: r, c: r.UserService.CheckAuth(ctx, auth.ActorFromContext(ctx))}
}

func (r *Resolver) Recipe(ctx context.Context, args struct{ ID graphql.ID }) (*recipeResolver, error) {
	rec, err := r.loadRecipe(ctx, string(args.ID))
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipe(rec), nil
}

func (r *Resolver) Recipes(ctx context.Context, args pageArgs) ([]*recipeResolver, error) {
	recipes, err := r.RecipeService.List(ctx, args.page())
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipes(ctx, recipes), nil
}

func (r *Resolver) RecipesByIngredients(ctx context.Context, args struct{ Ingredients []string }) ([]*recipeResolver, error) {
	recipes, err := r.RecipeService.ByIngredients(ctx, args.Ingredients)
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipes(ctx, recipes), nil
}

func (r *Resolver) SearchRecipes(ctx context.Context, args struct {
	Query  string
	Limit  *int32
	Offset *int32
}) ([]*recipeResolver, error) {
	page := pageArgs{Limit: args.Limit, Offset: args.Offset}.page()
	recipes, err := r.RecipeService.Search(ctx, args.Query, page)
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipes(ctx, recipes), nil
}

func (r *Resolver) FavoriteRecipes(ctx context.Context) ([]*recipeResolver, error) {
	recipes, err := r.FavoriteService.Mine(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipes(ctx, recipes), nil
}

func (r *Resolver) UserRecipes(ctx context.Context) ([]*recipeResolver, error) {
	recipes, err := r.RecipeService.Mine(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipes(ctx, recipes), nil
}

func (r *Resolver) PendingRecipes(ctx context.Context) ([]*recipeResolver, error) {
	recipes, err := r.RecipeService.Pending(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		return nil, present(err)
	}
	return r.newRecipes(ctx, recipes), nil
}

func (r *Resolver) RecipeComments(ctx context.Context, args struct{ RecipeID graphql.ID }) ([]*commentResolver, error) {
	comments, err := r.CommentService.ListByRecipe(ctx, string(args.RecipeID))
	if err != nil {
		return nil, present(err)
	}
	return r.newComments(comments), nil
}
