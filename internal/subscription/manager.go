package subscription

import (
	"log"
	"sync"
)

const (
	TopicRecipeApproved = "recipe.approved"
	TopicCommentAdded   = "comment.added"
)

// Event - доменное событие. Получатели сами загружают нужные записи по id.
type Event struct {
	Topic     string
	RecipeID  string
	CommentID string
	ActorID   string
}

type SubscriptionManager struct {
	mu   sync.RWMutex
	subs map[string][]chan Event // topic -> список каналов подписчиков
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		subs: make(map[string][]chan Event),
	}
}

func (m *SubscriptionManager) Subscribe(topic string) (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, 16) // Буфер, чтобы не блокировался писатель

	m.subs[topic] = append(m.subs[topic], ch)

	// функция для отписки
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			subscribers := m.subs[topic]
			for i, sub := range subscribers {
				if sub == ch {
					m.subs[topic] = append(subscribers[:i], subscribers[i+1:]...)
					close(ch)
					break
				}
			}
		})
	}

	return ch, cancel
}

// Publish никогда не ждет: подписчик с заполненным буфером теряет событие
func (m *SubscriptionManager) Publish(topic string, event Event) {
	event.Topic = topic

	// RLock держит отписку (close канала) до конца рассылки
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subs[topic] {
		select {
		case sub <- event:
		default:
			log.Printf("subscription: буфер подписчика %s заполнен, событие потеряно", topic)
		}
	}
}
