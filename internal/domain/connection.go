package domain

// ConnectionStatus is the state of the wallet connection.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

// String returns the string representation of ConnectionStatus.
func (s ConnectionStatus) String() string {
	return string(s)
}
