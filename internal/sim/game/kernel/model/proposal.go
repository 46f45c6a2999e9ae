package model

import (
	"fmt"
	"sort"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// Bundle is one side of a negotiation: resources plus region ids.
type Bundle struct {
	Resources Resources `json:"resources"`
	Regions   []int     `json:"regions,omitempty"`
}

func (b Bundle) IsEmpty() bool {
	return b.Resources.IsZero() && len(b.Regions) == 0
}

// Normalized returns a copy with sorted region ids.
func (b Bundle) Normalized() Bundle {
	out := Bundle{Resources: b.Resources}
	if len(b.Regions) > 0 {
		out.Regions = append([]int(nil), b.Regions...)
		sort.Ints(out.Regions)
	}
	return out
}

func (b Bundle) String() string {
	if len(b.Regions) == 0 {
		return b.Resources.String()
	}
	return fmt.Sprintf("%s + regions %v", b.Resources.String(), b.Regions)
}

// Proposal is immutable once created except for Status.
type Proposal struct {
	ID          string         `json:"id"`
	Initiator   int            `json:"initiator"`
	Target      int            `json:"target"`
	Offer       Bundle         `json:"offer"`
	Request     Bundle         `json:"request"`
	Status      ProposalStatus `json:"status"`
	CreatedTurn int            `json:"created_turn"`
}

func ProposalID(n uint64) string {
	return fmt.Sprintf("NG%06d", n)
}
