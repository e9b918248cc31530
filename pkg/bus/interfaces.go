package bus

import "context"

type Publisher interface {
	PublishEvent(EventMessage)
	PublishReply(ReplyMessage)
}

type Subscriber interface {
	ConsumeEvent(context.Context) (EventMessage, bool)
	ConsumeReply(context.Context) (ReplyMessage, bool)
}

type Broker interface {
	Publisher
	Subscriber
	RegisterHandler(channel string, handler EventHandler)
	GetHandler(channel string) (EventHandler, bool)
	Close()
}
