// Package notify отправляет авторам рецептов письма о событиях вокруг их рецептов.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"sync"

	"github.com/hn-son/let-him-cook-backend/internal/subscription"
	"github.com/hn-son/let-him-cook-backend/models"
)

type RecipeFinder interface {
	GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error)
}

type CommentFinder interface {
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
}

type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

var (
	approvedTmpl = template.Must(template.New("approved").Parse(
		`<p>Hi {{.Author.Username}},</p>` +
			`<p>Your recipe <b>{{.Recipe.Title}}</b> has been approved and is now visible to everyone.</p>`))
	commentTmpl = template.Must(template.New("comment").Parse(
		`<p>Hi {{.Author.Username}},</p>` +
			`<p>{{.Commenter.Username}} commented on <b>{{.Recipe.Title}}</b>:</p>` +
			`<blockquote>{{.Comment.Content}}</blockquote>`))
)

type Notifier struct {
	events   subscription.Manager
	recipes  RecipeFinder
	comments CommentFinder
	users    UserFinder
	mailer   Mailer
}

func NewNotifier(events subscription.Manager, recipes RecipeFinder, comments CommentFinder, users UserFinder, mailer Mailer) *Notifier {
	return &Notifier{events: events, recipes: recipes, comments: comments, users: users, mailer: mailer}
}

// Start подписывается на события синхронно и обрабатывает их в фоне до отмены ctx.
// Возвращаемая функция ждет завершения обработчиков.
func (n *Notifier) Start(ctx context.Context) (wait func()) {
	approved, cancelApproved := n.events.Subscribe(subscription.TopicRecipeApproved)
	comments, cancelComments := n.events.Subscribe(subscription.TopicCommentAdded)

	var wg sync.WaitGroup
	consume := func(ch <-chan subscription.Event, handle func(context.Context, subscription.Event) error) {
		defer wg.Done()
		for ev := range ch {
			if err := handle(ctx, ev); err != nil {
				log.Printf("уведомление %s не отправлено: %v", ev.Topic, err)
			}
		}
	}
	wg.Add(2)
	go consume(approved, n.recipeApproved)
	go consume(comments, n.commentAdded)

	go func() {
		<-ctx.Done()
		cancelApproved()
		cancelComments()
	}()

	return wg.Wait
}

func (n *Notifier) recipeApproved(ctx context.Context, ev subscription.Event) error {
	recipe, err := n.recipes.GetRecipeByID(ctx, ev.RecipeID)
	if err != nil {
		return fmt.Errorf("load recipe %s: %w", ev.RecipeID, err)
	}
	author, err := n.users.GetUserByID(ctx, recipe.AuthorID)
	if err != nil {
		return fmt.Errorf("load author %s: %w", recipe.AuthorID, err)
	}

	body, err := render(approvedTmpl, map[string]interface{}{
		"Author": author,
		"Recipe": recipe,
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(author.Email, "Your recipe was approved", body)
}

func (n *Notifier) commentAdded(ctx context.Context, ev subscription.Event) error {
	recipe, err := n.recipes.GetRecipeByID(ctx, ev.RecipeID)
	if err != nil {
		return fmt.Errorf("load recipe %s: %w", ev.RecipeID, err)
	}
	// о своих комментариях автору не пишем
	if recipe.AuthorID == ev.ActorID {
		return nil
	}

	comment, err := n.comments.GetCommentByID(ctx, ev.CommentID)
	if err != nil {
		return fmt.Errorf("load comment %s: %w", ev.CommentID, err)
	}
	author, err := n.users.GetUserByID(ctx, recipe.AuthorID)
	if err != nil {
		return fmt.Errorf("load author %s: %w", recipe.AuthorID, err)
	}
	commenter, err := n.users.GetUserByID(ctx, comment.AuthorID)
	if err != nil {
		return fmt.Errorf("load commenter %s: %w", comment.AuthorID, err)
	}

	body, err := render(commentTmpl, map[string]interface{}{
		"Author":    author,
		"Commenter": commenter,
		"Recipe":    recipe,
		"Comment":   comment,
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(author.Email, "New comment on "+recipe.Title, body)
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
