package room

import "sync"

// Client is the outbound side of one connection. Sends never block: a full
// queue drops the message.
type Client struct {
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient returns a Client with a send queue of size buf.
func NewClient(buf int) *Client {
	return &Client{
		send: make(chan []byte, buf),
		done: make(chan struct{}),
	}
}

// Outbound is read by the connection writer.
func (c *Client) Outbound() <-chan []byte { return c.send }

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close tells the writer to stop. It is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
