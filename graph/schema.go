package graph

import (
	_ "embed"
	"log"
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
)

//go:embed schema.graphqls
var schemaSDL string

// SchemaSDL возвращает текст схемы
func SchemaSDL() string {
	return schemaSDL
}

// NewSchema связывает схему с резолверами; несоответствие методов схеме - ошибка
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, r,
		graphql.MaxDepth(12),
		graphql.MaxParallelism(16),
	)
}

// Authenticator кладет актора из заголовка Authorization в context запроса
type Authenticator interface {
	Middleware(next http.Handler) http.Handler
}

// NewHandler: /query - GraphQL, / - Playground
func NewHandler(schema *graphql.Schema, auth Authenticator) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/query", auth.Middleware(WithLoaders(&relay.Handler{Schema: schema})))
	mux.Handle("/", playground.Handler("GraphQL Playground", "/query"))
	return mux
}

// present приводит ошибку к виду, который можно отдать клиенту.
// Причина внутренней ошибки пишется в лог и наружу не попадает.
func present(err error) error {
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) == apperror.KindInternal {
		log.Printf("internal error: %v", errorCause(err))
		return apperror.New(apperror.KindInternal, "internal server error")
	}
	return err
}

func errorCause(err error) error {
	for {
		appErr, ok := err.(*apperror.Error)
		if !ok || appErr.Err == nil {
			return err
		}
		err = appErr.Err
	}
}
