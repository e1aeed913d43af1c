package sigv4

import (
	"fmt"
	"strings"
)

// Identity is a single parsed AWS ARN-shaped identity, generalizing the
// AWSPrincipal type the original package scoped to a single IAM identity.
// A Principal is an ordered sequence of these so that verification can
// attach both the calling user/role and, where applicable, the identity
// that assumed it.
type Identity struct {
	Partition    string
	Service      string
	Region       string
	AccountID    string
	ResourceType string
	Resource     string
}

// ParseARN parses an "arn:partition:service:region:account-id:resource"
// string into an Identity.
func ParseARN(arn string) (Identity, error) {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return Identity{}, fmt.Errorf("sigv4: invalid ARN %q", arn)
	}

	id := Identity{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
	}

	resource := parts[5]
	if idx := strings.IndexAny(resource, "/:"); idx >= 0 {
		id.ResourceType = resource[:idx]
		id.Resource = resource[idx+1:]
	} else {
		id.Resource = resource
	}
	return id, nil
}

// String renders the Identity back to its ARN form.
func (id Identity) String() string {
	resource := id.Resource
	if id.ResourceType != "" {
		resource = id.ResourceType + "/" + id.Resource
	}
	return fmt.Sprintf("arn:%s:%s:%s:%s:%s", id.Partition, id.Service, id.Region, id.AccountID, resource)
}

// IsAssumedRole reports whether id identifies an STS assumed-role session.
func (id Identity) IsAssumedRole() bool {
	return id.Service == "sts" && id.ResourceType == "assumed-role"
}

// IsUser reports whether id identifies an IAM user.
func (id Identity) IsUser() bool {
	return id.Service == "iam" && id.ResourceType == "user"
}

// IsFederatedUser reports whether id identifies an STS federated user.
func (id Identity) IsFederatedUser() bool {
	return id.Service == "sts" && id.ResourceType == "federated-user"
}

// Principal is the ordered identity chain a Credential Resolver attaches to
// a verified request: index 0 is the calling identity (a user, role session,
// or federated user); any further entries describe identities that were
// assumed to reach it, outermost first.
type Principal struct {
	AccessKeyID string
	Identities  []Identity
}

// Primary returns the calling identity, the zero Identity if none was set.
func (p Principal) Primary() Identity {
	if len(p.Identities) == 0 {
		return Identity{}
	}
	return p.Identities[0]
}

func (p Principal) String() string {
	if len(p.Identities) == 0 {
		return p.AccessKeyID
	}
	return p.Primary().String()
}
