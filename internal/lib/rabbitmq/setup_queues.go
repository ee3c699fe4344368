package rabbitmq

// Routing keys and queues of the notification pipeline.
const (
	TrialExpiringKey   = "trial_expiring"
	TrialExpiringQueue = "notification.trial_expiring"
)

// QueueConfig binds a queue to a routing key on Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues returns the queues the sender consumes.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: TrialExpiringQueue, RoutingKey: TrialExpiringKey},
	}
}
