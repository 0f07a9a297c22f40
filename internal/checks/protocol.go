package checks

import (
	"fmt"

	"agentaudit/pkg/types"
)

// ReadinessInputs are the already-computed booleans driving the six
// protocol readiness decision tables.
type ReadinessInputs struct {
	HasFeed               bool
	FeedHasRequiredFields bool
	GtinCoverage          float64
	HasProduct            bool
	HasOffer              bool
	HasLLMsTxt            bool
	UCPManifest           ManifestResult
	MCPManifest           ManifestResult
	PaymentRails          []string
	APIPatterns           []string
}

// AssessReadiness computes the six three-state protocol signals. Each
// signal is an independent decision table; ready/partial counters are
// simple tallies across the six.
func AssessReadiness(in ReadinessInputs) types.ProtocolReadiness {
	r := types.ProtocolReadiness{
		GoogleShopping: googleShoppingState(in),
		KlarnaApp:      klarnaState(in),
		AnswerEngines:  answerEnginesState(in),
		UCP:            ucpState(in),
		ACP:            acpState(in),
		MCP:            mcpState(in),
		PaymentRails:   in.PaymentRails,
	}
	for _, state := range []types.ReadinessState{r.GoogleShopping, r.KlarnaApp, r.AnswerEngines, r.UCP, r.ACP, r.MCP} {
		switch state {
		case types.Ready:
			r.ReadyCount++
		case types.Partial:
			r.PartialCount++
		}
	}
	return r
}

func googleShoppingState(in ReadinessInputs) types.ReadinessState {
	switch {
	case in.HasFeed && in.FeedHasRequiredFields && in.GtinCoverage >= 0.9:
		return types.Ready
	case in.HasFeed && (in.FeedHasRequiredFields || in.GtinCoverage >= 0.5):
		return types.Partial
	case in.HasFeed:
		return types.Partial
	default:
		return types.NotReady
	}
}

func klarnaState(in ReadinessInputs) types.ReadinessState {
	switch {
	case in.HasFeed && in.GtinCoverage >= 0.8:
		return types.Ready
	case in.HasFeed && in.GtinCoverage >= 0.5:
		return types.Partial
	default:
		return types.NotReady
	}
}

func answerEnginesState(in ReadinessInputs) types.ReadinessState {
	switch {
	case in.HasProduct && in.HasOffer && in.HasLLMsTxt:
		return types.Ready
	case in.HasProduct && in.HasOffer:
		return types.Partial
	case in.HasProduct || in.HasFeed:
		return types.Partial
	default:
		return types.NotReady
	}
}

func ucpState(in ReadinessInputs) types.ReadinessState {
	switch {
	case in.UCPManifest.Found:
		return types.Ready
	case in.HasOffer && len(in.PaymentRails) > 0:
		return types.Partial
	default:
		return types.NotReady
	}
}

func acpState(in ReadinessInputs) types.ReadinessState {
	switch {
	case len(in.PaymentRails) > 0 && len(in.APIPatterns) > 0:
		return types.Ready
	case len(in.PaymentRails) > 0 || len(in.APIPatterns) > 0:
		return types.Partial
	default:
		return types.NotReady
	}
}

func mcpState(in ReadinessInputs) types.ReadinessState {
	switch {
	case in.MCPManifest.Found:
		return types.Ready
	case len(in.APIPatterns) > 0:
		return types.Partial
	default:
		return types.NotReady
	}
}

// FeedReachCheck is the legacy distribution check summarising feed reach.
func FeedReachCheck(readiness types.ProtocolReadiness) types.Check {
	check := types.Check{
		ID:       IDFeedReach,
		Name:     "Shopping surface reach",
		Category: types.CategoryDistribution,
		MaxScore: 0,
		Data: map[string]any{
			"googleShopping": readiness.GoogleShopping,
			"klarnaApp":      readiness.KlarnaApp,
			"answerEngines":  readiness.AnswerEngines,
		},
	}
	switch {
	case readiness.GoogleShopping == types.Ready && readiness.KlarnaApp == types.Ready:
		check.Status = types.StatusPass
		check.Details = "Feed is ready for the major shopping surfaces"
	case readiness.GoogleShopping != types.NotReady || readiness.KlarnaApp != types.NotReady:
		check.Status = types.StatusPartial
		check.Details = "Feed reaches some shopping surfaces"
	default:
		check.Status = types.StatusFail
		check.Details = "Feed reaches no shopping surfaces"
	}
	return check
}

// AgentProtocolsCheck is the legacy distribution check summarising the
// commerce-layer protocol posture.
func AgentProtocolsCheck(readiness types.ProtocolReadiness) types.Check {
	check := types.Check{
		ID:       IDAgentProtocols,
		Name:     "Agent commerce protocols",
		Category: types.CategoryDistribution,
		MaxScore: 0,
		Data: map[string]any{
			"ucp": readiness.UCP,
			"acp": readiness.ACP,
			"mcp": readiness.MCP,
		},
	}
	ready := 0
	for _, state := range []types.ReadinessState{readiness.UCP, readiness.ACP, readiness.MCP} {
		if state == types.Ready {
			ready++
		}
	}
	switch {
	case ready == 3:
		check.Status = types.StatusPass
		check.Details = "All agent commerce protocols are ready"
	case ready > 0 || readiness.PartialCount > 0:
		check.Status = types.StatusPartial
		check.Details = fmt.Sprintf("%d of 3 agent commerce protocols ready", ready)
	default:
		check.Status = types.StatusFail
		check.Details = "No agent commerce protocol support detected"
	}
	return check
}
