package redisx

const ns = "gatepass:v1"

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}
