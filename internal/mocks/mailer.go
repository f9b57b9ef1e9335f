package mocks

import "github.com/stretchr/testify/mock"

type Mailer struct{ mock.Mock }

func (m *Mailer) Send(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}
