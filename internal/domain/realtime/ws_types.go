package realtime

// clientMessage is what clients may send over the socket. Everything
// except keepalive is ignored; the channel is server-to-client.
type clientMessage struct {
	Type string `json:"type"`
}

type serverEvent struct {
	Type         string `json:"type"`
	ErrorCode    string `json:"code,omitempty"`
	ErrorMessage string `json:"message,omitempty"`
}

func pongEvent() serverEvent {
	return serverEvent{Type: "pong"}
}

func errorEvent(code, message string) serverEvent {
	return serverEvent{Type: "error", ErrorCode: code, ErrorMessage: message}
}
