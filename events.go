package connections

import (
	"fmt"
)

/*
EventHandler receives notifications of structural changes to a graph.
Destroy notifications are delivered while the id is still valid. Destroying
a segment reports only the segment, not each of its synapses.
*/
type EventHandler interface {
	OnCreateSegment(segment Segment)
	OnDestroySegment(segment Segment)
	OnCreateSynapse(synapse Synapse)
	OnDestroySynapse(synapse Synapse)
	OnUpdateSynapsePermanence(synapse Synapse, permanence Permanence)
}

type subscription struct {
	token   uint32
	handler EventHandler
}

//Registers handler and returns the token used to unsubscribe it. Handlers
//are called in subscription order.
func (c *Connections) Subscribe(handler EventHandler) uint32 {
	token := c.nextToken
	c.nextToken++
	c.handlers = append(c.handlers, subscription{token: token, handler: handler})
	return token
}

func (c *Connections) Unsubscribe(token uint32) error {
	for i, s := range c.handlers {
		if s.token == token {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: no subscription %d", ErrInvalidArgument, token)
}
