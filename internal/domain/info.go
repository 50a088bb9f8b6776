package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Embed is the subset of a rich embed the nodes can build.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
	Footer      string `json:"footer,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// UserInfo is cached user metadata.
type UserInfo struct {
	ID            string
	Username      string
	Discriminator string
	Bot           bool
}

// ChannelInfo is cached channel metadata.
type ChannelInfo struct {
	ID    string
	Name  string
	Topic string
	Type  int
}

// ParseSnowflake validates a numeric Discord identifier and returns its
// canonical decimal form.
func ParseSnowflake(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty id")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("id %q is not numeric", s)
	}
	if v == 0 {
		return "", fmt.Errorf("id must be non-zero")
	}
	return strconv.FormatUint(v, 10), nil
}
