package credential

import "github.com/dioad/sigv4/sigv4"

// PrincipalType identifies the "aws:PrincipalType" condition-context value
// a Resolver should report for the kinds of identity this package and
// sqlresolver know how to resolve.
type PrincipalType string

const (
	PrincipalTypeUser        PrincipalType = "User"
	PrincipalTypeAssumedRole PrincipalType = "AssumedRole"
	PrincipalTypeFederated   PrincipalType = "FederatedUser"
)

// StandardSessionData builds the "aws:*" condition-context keys §3 lists,
// from the resolved identity and whatever session-specific facts the
// caller has on hand (MFA presence, the server's own region).
// aws:PrincipalIsAWSService and aws:ViaAWSService are always false.
// A Resolver should call this once it has the principal and merge in any
// resolver-specific attributes (e.g. a role's externally-set session tags).
func StandardSessionData(identity sigv4.Identity, userName string, principalType PrincipalType, requestedRegion string, mfaPresent bool) sigv4.SessionData {
	data := sigv4.SessionData{
		"aws:userid":                 sigv4.StringAttribute(identity.AccountID + ":" + userName),
		"aws:PrincipalArn":           sigv4.StringAttribute(identity.String()),
		"aws:PrincipalAccount":       sigv4.StringAttribute(identity.AccountID),
		"aws:PrincipalType":          sigv4.StringAttribute(string(principalType)),
		"aws:MultiFactorAuthPresent": sigv4.BoolAttribute(mfaPresent),
		"aws:PrincipalIsAWSService":  sigv4.BoolAttribute(false),
		"aws:ViaAWSService":          sigv4.BoolAttribute(false),
		"aws:RequestedRegion":        sigv4.StringAttribute(requestedRegion),
	}
	if userName != "" {
		data["aws:username"] = sigv4.StringAttribute(userName)
	}
	return data
}
