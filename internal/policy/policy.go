// Package policy содержит чистые проверки прав доступа.
// Каждая изменяющая операция вызывает одну из них до обращения к хранилищу.
package policy

import (
	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/models"
)

// Actor - пользователь, от имени которого выполняется запрос. nil - анонимный.
type Actor struct {
	ID       string
	Username string
	Email    string
	Role     models.Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

func IsAuthenticated(actor *Actor) error {
	if actor == nil || actor.ID == "" {
		return apperror.Unauthenticated("you must be logged in")
	}
	return nil
}

// CanModify разрешает действие владельцу ресурса или администратору
func CanModify(actor *Actor, ownerID string) error {
	if err := IsAuthenticated(actor); err != nil {
		return err
	}
	if actor.ID == ownerID || actor.IsAdmin() {
		return nil
	}
	return apperror.Forbidden("you are not authorized to modify this resource")
}

func CanModerate(actor *Actor) error {
	if err := IsAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperror.Forbidden("you must be an admin to perform this action")
	}
	return nil
}
