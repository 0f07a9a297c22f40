package checks

// Fixed maxScore rubric (v2 scoring constants). Legacy distribution checks
// (P1-P7) carry a maxScore of 0: they are still computed and persisted for
// display but excluded from every aggregate.
const (
	MaxBotAccess      = 20 // D1
	MaxSitemap        = 10 // D2
	MaxProductSchema  = 15 // D3
	MaxProductFeed    = 15 // D4
	MaxLLMsTxt        = 5  // D5
	MaxOrganization   = 10 // T1
	MaxReturnPolicy   = 10 // T2
	MaxTrustSignals   = 5  // T3
	MaxHTTPS          = 5  // X1
	MaxUCPCompliance  = 10 // X2
	MaxPaymentMethods = 10 // X3
	MaxPageSpeed      = 10 // PF1, forced to 0 when the check is skipped
)

// Check IDs are stable short codes persisted with every analysis.
const (
	IDBotAccess      = "D1"
	IDSitemap        = "D2"
	IDProductSchema  = "D3"
	IDProductFeed    = "D4"
	IDLLMsTxt        = "D5"
	IDOrganization   = "T1"
	IDReturnPolicy   = "T2"
	IDTrustSignals   = "T3"
	IDHTTPS          = "X1"
	IDUCPCompliance  = "X2"
	IDPaymentMethods = "X3"
	IDPageSpeed      = "PF1"

	IDPlatform       = "P1"
	IDPaymentRails   = "P2"
	IDAPIPatterns    = "P3"
	IDUCPManifest    = "P4"
	IDMCPManifest    = "P5"
	IDFeedReach      = "P6"
	IDAgentProtocols = "P7"
)
