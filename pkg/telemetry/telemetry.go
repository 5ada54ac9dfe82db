// Package telemetry provides a minimal event hook for the gateway.
// The default client is nil; deployments that ship events to an external
// collector replace GlobalClient at startup. No user text is ever attached
// to telemetry events, only aggregate fields.
package telemetry

type Client struct{}

var GlobalClient *Client = nil

func (c *Client) TrackWithContext(event string, props map[string]interface{}, args ...string) {}
func (c *Client) Track(event string, props map[string]interface{})                            {}
