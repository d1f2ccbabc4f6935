package execution

import (
	"fmt"
	"strings"

	"github.com/3leaps/nbrun/pkg/identity"
	"github.com/3leaps/nbrun/pkg/s3uri"
)

// Built-in conventions. Overridable via Defaults (wired from config),
// but the zero-value Defaults reproduces these.
const (
	// DefaultImageName is the conventional image used when the request
	// carries none.
	DefaultImageName = "notebook-runner"

	// DefaultRoleBase is the conventional execution role name,
	// parameterized by region (DefaultRoleBase-{region}).
	DefaultRoleBase = "BasicExecuteNotebookRole"

	// DefaultVolumeSizeGB is the job volume size.
	DefaultVolumeSizeGB = 40

	// DefaultMaxRuntimeSeconds is the job stopping condition.
	DefaultMaxRuntimeSeconds = 7200
)

// Defaults carries the convention-based values applied during
// normalization and assembly. Zero fields fall back to the built-in
// constants above.
type Defaults struct {
	// Image is the default container image name.
	Image string

	// RoleBase is the default execution role base name; the region is
	// appended (RoleBase-{region}).
	RoleBase string

	// InstanceType is the default compute instance type.
	InstanceType string

	// VolumeSizeGB is the job volume size.
	VolumeSizeGB int

	// MaxRuntimeSeconds is the stopping-condition runtime cap.
	MaxRuntimeSeconds int

	// ContainerArguments are passed to the job container.
	ContainerArguments []string
}

func (d Defaults) image() string {
	if d.Image != "" {
		return d.Image
	}
	return DefaultImageName
}

func (d Defaults) roleBase() string {
	if d.RoleBase != "" {
		return d.RoleBase
	}
	return DefaultRoleBase
}

func (d Defaults) instanceType() string {
	if d.InstanceType != "" {
		return d.InstanceType
	}
	return DefaultInstanceType
}

func (d Defaults) volumeSizeGB() int {
	if d.VolumeSizeGB > 0 {
		return d.VolumeSizeGB
	}
	return DefaultVolumeSizeGB
}

func (d Defaults) maxRuntimeSeconds() int {
	if d.MaxRuntimeSeconds > 0 {
		return d.MaxRuntimeSeconds
	}
	return DefaultMaxRuntimeSeconds
}

func (d Defaults) containerArguments() []string {
	if len(d.ContainerArguments) > 0 {
		return d.ContainerArguments
	}
	return []string{"run_notebook"}
}

// normalized holds the fully-specified request fields after defaulting.
// No partial result is ever observed: every field is resolved before
// the assembler runs.
type normalized struct {
	Image        string
	Role         string
	InputPath    string
	OutputPrefix string
	Notebook     string
	InstanceType string
}

// normalize fills unset optional fields and fully qualifies image and
// role references. Pure and field-by-field; applying it to an
// already-normalized request yields identical values.
func normalize(req *Request, caller *identity.Caller, d Defaults) (*normalized, error) {
	input, err := s3uri.Parse(req.InputPath)
	if err != nil {
		return nil, &RequestError{Field: "input_path", Message: "must be an S3 URI", Err: err}
	}

	outputPrefix := req.OutputPrefix
	if outputPrefix == "" {
		outputPrefix = input.Dir()
	}

	notebook := req.Notebook
	if notebook == "" {
		notebook = req.InputPath
	}

	instanceType := req.InstanceType
	if instanceType == "" {
		instanceType = d.instanceType()
	}

	return &normalized{
		Image:        QualifyImage(req.Image, caller, d.image()),
		Role:         QualifyRole(req.Role, caller, d.roleBase()),
		InputPath:    req.InputPath,
		OutputPrefix: outputPrefix,
		Notebook:     notebook,
		InstanceType: instanceType,
	}, nil
}

// QualifyImage resolves an image reference to a fully qualified URI.
//
// An empty reference falls back to defaultImage. A reference without a
// registry qualifier (no "/") is prefixed with the caller's ECR
// registry; a reference without a tag (no ":") gets ":latest".
// Already-qualified references pass through unchanged, so the function
// is idempotent.
func QualifyImage(image string, caller *identity.Caller, defaultImage string) string {
	if image == "" {
		image = defaultImage
	}
	if !strings.Contains(image, "/") {
		image = fmt.Sprintf("%s.dkr.ecr.%s.%s/%s",
			caller.AccountID, caller.Region, caller.DomainSuffix, image)
	}
	if !strings.Contains(image, ":") {
		image += ":latest"
	}
	return image
}

// QualifyRole resolves a role reference to a full role ARN.
//
// An empty reference falls back to the conventional per-region role
// (roleBase-{region}). A bare name (no "/") is qualified with the
// caller's partition and account. Full ARNs pass through unchanged.
func QualifyRole(role string, caller *identity.Caller, roleBase string) string {
	if role == "" {
		role = fmt.Sprintf("%s-%s", roleBase, caller.Region)
	}
	if !strings.Contains(role, "/") {
		role = fmt.Sprintf("arn:%s:iam::%s:role/%s", caller.Partition, caller.AccountID, role)
	}
	return role
}
