package subscription

type Manager interface {
	Subscribe(topic string) (<-chan Event, func())
	Publish(topic string, event Event)
}

// Publisher - часть Manager, нужная сервисам, которые только сообщают о событиях
type Publisher interface {
	Publish(topic string, event Event)
}
