package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации для событий подписок.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetSubscriptionQueues возвращает очереди событий жизненного цикла подписок.
func GetSubscriptionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "subscriptions.expired", RoutingKey: "expired"},
		{QueueName: "subscriptions.renewed", RoutingKey: "renewed"},
	}
}
