// Package identity resolves the ambient AWS caller identity and the
// partition-specific naming material derived from it.
//
// A single Resolve call produces everything needed to fully qualify role
// and image references: region, partition, account id, and the partition
// DNS suffix. The result is immutable and safe to share across
// concurrent request handling.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Domain suffixes per partition. Selection is a prefix match over the
// region string; see DomainForRegion.
const (
	DomainStandard = "amazonaws.com"
	DomainChina    = "amazonaws.com.cn"
	DomainIso      = "c2s.ic.gov"
	DomainIsoB     = "sc2s.sgov.gov"
)

// Caller is the resolved execution identity.
//
// Derived once per request and read-only afterward.
type Caller struct {
	// Region is the resolved AWS region (e.g., "us-east-1").
	Region string

	// Partition is the IAM partition identifier (e.g., "aws", "aws-cn").
	Partition string

	// AccountID is the caller's 12-digit account identifier.
	AccountID string

	// DomainSuffix is the partition DNS suffix (e.g., "amazonaws.com").
	DomainSuffix string
}

// STSAPI is the subset of the STS client used by the resolver.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Resolver derives Caller identities from the ambient environment.
type Resolver struct {
	sts    STSAPI
	region string
}

// NewResolver builds a resolver from the default AWS config chain.
//
// Region resolution order:
//  1. Region from the SDK chain (explicit config, env, profile)
//  2. EC2 instance metadata, when reachable
//
// A missing or unreachable identity is a misconfiguration that cannot
// self-heal, so Resolve surfaces it immediately with no retry.
func NewResolver(ctx context.Context) (*Resolver, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: load aws config: %w", err)
	}

	region := awsCfg.Region
	if region == "" {
		region = regionFromIMDS(ctx, awsCfg)
	}
	if region == "" {
		return nil, fmt.Errorf("identity: no region configured (set AWS_REGION or a profile region)")
	}
	awsCfg.Region = region

	return &Resolver{
		sts:    sts.NewFromConfig(awsCfg),
		region: region,
	}, nil
}

// NewResolverWithClient builds a resolver with an explicit STS client.
// Used by tests and by callers that already hold a configured client.
func NewResolverWithClient(client STSAPI, region string) *Resolver {
	return &Resolver{sts: client, region: region}
}

// Resolve returns the caller identity for the configured region.
func (r *Resolver) Resolve(ctx context.Context) (*Caller, error) {
	out, err := r.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("identity: get caller identity: %w", err)
	}

	return &Caller{
		Region:       r.region,
		Partition:    PartitionForRegion(r.region),
		AccountID:    aws.ToString(out.Account),
		DomainSuffix: DomainForRegion(r.region),
	}, nil
}

// DomainForRegion selects the partition DNS suffix for a region.
//
// The policy is a prefix match, most specific first:
//
//	us-isob-* → sc2s.sgov.gov
//	us-iso-*  → c2s.ic.gov
//	cn-*      → amazonaws.com.cn
//	otherwise → amazonaws.com
func DomainForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "us-isob-"):
		return DomainIsoB
	case strings.HasPrefix(region, "us-iso-"):
		return DomainIso
	case strings.HasPrefix(region, "cn-"):
		return DomainChina
	default:
		return DomainStandard
	}
}

// PartitionForRegion selects the IAM partition identifier for a region.
func PartitionForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "us-isob-"):
		return "aws-iso-b"
	case strings.HasPrefix(region, "us-iso-"):
		return "aws-iso"
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	default:
		return "aws"
	}
}

// regionFromIMDS asks the instance metadata service for the region.
// Errors are swallowed: off-EC2 environments simply have no IMDS, and
// the caller reports the combined "no region" failure.
func regionFromIMDS(ctx context.Context, awsCfg aws.Config) string {
	client := imds.NewFromConfig(awsCfg)
	out, err := client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return ""
	}
	return out.Region
}
