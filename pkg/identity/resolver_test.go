package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSTS struct {
	account string
	err     error
}

func (s stubSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sts.GetCallerIdentityOutput{Account: aws.String(s.account)}, nil
}

func TestDomainForRegion(t *testing.T) {
	tests := []struct {
		region   string
		expected string
	}{
		{"us-east-1", DomainStandard},
		{"eu-west-2", DomainStandard},
		{"us-gov-west-1", DomainStandard},
		{"cn-north-1", DomainChina},
		{"cn-northwest-1", DomainChina},
		{"us-iso-east-1", DomainIso},
		{"us-isob-east-1", DomainIsoB},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			assert.Equal(t, tt.expected, DomainForRegion(tt.region))
		})
	}
}

func TestPartitionForRegion(t *testing.T) {
	tests := []struct {
		region   string
		expected string
	}{
		{"us-east-1", "aws"},
		{"ap-southeast-2", "aws"},
		{"cn-north-1", "aws-cn"},
		{"us-gov-east-1", "aws-us-gov"},
		{"us-iso-east-1", "aws-iso"},
		{"us-isob-east-1", "aws-iso-b"},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			assert.Equal(t, tt.expected, PartitionForRegion(tt.region))
		})
	}
}

func TestResolve(t *testing.T) {
	r := NewResolverWithClient(stubSTS{account: "123456789012"}, "us-east-1")

	caller, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", caller.Region)
	assert.Equal(t, "aws", caller.Partition)
	assert.Equal(t, "123456789012", caller.AccountID)
	assert.Equal(t, "amazonaws.com", caller.DomainSuffix)
}

func TestResolvePropagatesIdentityFailure(t *testing.T) {
	r := NewResolverWithClient(stubSTS{err: errors.New("no credentials")}, "us-east-1")

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get caller identity")
	assert.Contains(t, err.Error(), "no credentials")
}

func TestResolveIsolatedPartition(t *testing.T) {
	r := NewResolverWithClient(stubSTS{account: "210987654321"}, "us-iso-east-1")

	caller, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "aws-iso", caller.Partition)
	assert.Equal(t, "c2s.ic.gov", caller.DomainSuffix)
}
