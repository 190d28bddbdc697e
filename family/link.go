package family

import (
	"fmt"
	"math"
)

// LinkTag identifies a link function.
type LinkTag uint8

const (
	IdentityLink LinkTag = iota
	LogLink
	LogitLink
	InverseLink
)

// Link relates the linear predictor to the mean of the response. Decreasing
// marks links whose inverse flips interval endpoint order; interval code must
// swap bounds after transforming through such a link.
type Link struct {
	Tag        LinkTag
	Name       string
	Eval       func(mu float64) float64
	Inverse    func(eta float64) float64
	Decreasing bool
}

var identityLink = Link{
	Tag:     IdentityLink,
	Name:    "identity",
	Eval:    func(mu float64) float64 { return mu },
	Inverse: func(eta float64) float64 { return eta },
}

var logLink = Link{
	Tag:     LogLink,
	Name:    "log",
	Eval:    math.Log,
	Inverse: math.Exp,
}

var logitLink = Link{
	Tag:     LogitLink,
	Name:    "logit",
	Eval:    func(mu float64) float64 { return math.Log(mu / (1 - mu)) },
	Inverse: func(eta float64) float64 { return 1 / (1 + math.Exp(-eta)) },
}

var inverseLink = Link{
	Tag:        InverseLink,
	Name:       "inverse",
	Eval:       func(mu float64) float64 { return 1 / mu },
	Inverse:    func(eta float64) float64 { return 1 / eta },
	Decreasing: true,
}

// NewLink returns the link function for the given tag.
func NewLink(tag LinkTag) *Link {
	switch tag {
	case IdentityLink:
		return &identityLink
	case LogLink:
		return &logLink
	case LogitLink:
		return &logitLink
	case InverseLink:
		return &inverseLink
	default:
		panic(fmt.Sprintf("family: unknown link tag %d", tag))
	}
}

// ParseLink maps a link name to its tag.
func ParseLink(name string) (LinkTag, error) {
	switch name {
	case "identity":
		return IdentityLink, nil
	case "log":
		return LogLink, nil
	case "logit":
		return LogitLink, nil
	case "inverse":
		return InverseLink, nil
	default:
		return 0, fmt.Errorf("family: unknown link %q", name)
	}
}
