package rabbitmq

// Ключи маршрутизации доменных событий
const (
	AccountRegistered = "account.registered"
	OrderCreated      = "order.created"
	DeviceRegistered  = "device.registered"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// EventQueues очереди, в которые раскладываются события сервера
func EventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "iedcs.accounts", RoutingKey: AccountRegistered},
		{QueueName: "iedcs.orders", RoutingKey: OrderCreated},
		{QueueName: "iedcs.devices", RoutingKey: DeviceRegistered},
	}
}
