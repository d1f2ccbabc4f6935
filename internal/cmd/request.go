package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/3leaps/nbrun/pkg/execution"
	"github.com/3leaps/nbrun/pkg/identity"
	"github.com/3leaps/nbrun/pkg/manifest"
	"github.com/3leaps/nbrun/pkg/runner"
	"github.com/3leaps/nbrun/pkg/s3uri"
	"github.com/3leaps/nbrun/pkg/storage"
	"github.com/3leaps/nbrun/pkg/submit"
)

// requestFlags collects the flags shared by run and payload.
type requestFlags struct {
	job           string
	image         string
	role          string
	instanceType  string
	outputPrefix  string
	notebook      string
	ruleName      string
	params        []string
	paramsFile    string
	extraArgsFile string
	upload        string
	region        string
	profile       string
}

// registerJob adds the request-file flag. Separate from register
// because sweep derives its inputs from the pattern, not a file.
func (f *requestFlags) registerJob(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.job, "job", "j", "", "YAML or JSON request file")
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.image, "image", "", "Container image (bare name, name:tag, or full URI)")
	cmd.Flags().StringVar(&f.role, "role", "", "Execution role (bare name or full ARN)")
	cmd.Flags().StringVar(&f.instanceType, "instance-type", "", "Compute instance type")
	cmd.Flags().StringVarP(&f.outputPrefix, "output-prefix", "o", "", "S3 prefix for results (default: input directory)")
	cmd.Flags().StringVar(&f.notebook, "notebook", "", "Notebook name when the input is not the notebook itself")
	cmd.Flags().StringVar(&f.ruleName, "rule-name", "", "Originating schedule rule name")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "Notebook parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&f.paramsFile, "params-file", "", "YAML file of notebook parameters")
	cmd.Flags().StringVar(&f.extraArgsFile, "extra-args", "", "JSON file of payload overrides")
	cmd.Flags().StringVar(&f.upload, "upload", "", "S3 prefix to upload a local notebook to before running")
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "AWS region for uploads")
	cmd.Flags().StringVar(&f.profile, "profile", "", "AWS profile for uploads")
}

// buildRequest assembles the execution request from the request file,
// the input argument, and flags, in increasing precedence. Local input
// paths are uploaded when --upload is set.
func (f *requestFlags) buildRequest(ctx context.Context, input string) (*execution.Request, error) {
	var base *execution.Request
	if f.job != "" {
		m, err := manifest.Load(f.job)
		if err != nil {
			return nil, exitError(foundry.ExitInvalidArgument, "Invalid request file", err)
		}
		base = m.ToRequest()
	}

	if input == "" {
		if base == nil {
			return nil, exitError(foundry.ExitInvalidArgument,
				"Missing input", errors.New("provide a notebook argument or --job"))
		}
	} else if !strings.HasPrefix(input, "s3://") {
		if f.upload == "" {
			return nil, exitError(foundry.ExitInvalidArgument,
				"Local input requires --upload", fmt.Errorf("input %q is not an S3 URI", input))
		}
		uploaded, err := uploadNotebook(ctx, input, f.upload, f.region, f.profile)
		if err != nil {
			return nil, err
		}
		input = uploaded
	}

	req, err := f.template()
	if err != nil {
		return nil, err
	}
	if base != nil {
		req = overlay(base, req)
	}
	if input != "" {
		req.InputPath = input
	}
	return req, nil
}

// overlay applies non-zero fields from flags over the file-derived
// base. Parameter maps are merged key-wise, flags winning.
func overlay(base, flags *execution.Request) *execution.Request {
	merged := *base
	if flags.Image != "" {
		merged.Image = flags.Image
	}
	if flags.OutputPrefix != "" {
		merged.OutputPrefix = flags.OutputPrefix
	}
	if flags.Notebook != "" {
		merged.Notebook = flags.Notebook
	}
	if flags.Role != "" {
		merged.Role = flags.Role
	}
	if flags.InstanceType != "" {
		merged.InstanceType = flags.InstanceType
	}
	if flags.RuleName != "" {
		merged.RuleName = flags.RuleName
	}
	if len(flags.Parameters) > 0 {
		params := make(map[string]any, len(base.Parameters)+len(flags.Parameters))
		for k, v := range base.Parameters {
			params[k] = v
		}
		for k, v := range flags.Parameters {
			params[k] = v
		}
		merged.Parameters = params
	}
	if len(flags.ExtraArgs) > 0 {
		merged.ExtraArgs = flags.ExtraArgs
	}
	return &merged
}

// template builds the request from flags alone, leaving InputPath
// empty. Used directly by sweep, which fills the input per notebook.
func (f *requestFlags) template() (*execution.Request, error) {
	params, err := f.parameters()
	if err != nil {
		return nil, err
	}

	extraArgs, err := f.extraArgs()
	if err != nil {
		return nil, err
	}

	return &execution.Request{
		Image:        f.image,
		OutputPrefix: f.outputPrefix,
		Notebook:     f.notebook,
		Parameters:   params,
		Role:         f.role,
		InstanceType: f.instanceType,
		RuleName:     f.ruleName,
		ExtraArgs:    extraArgs,
	}, nil
}

// parameters merges --params-file values with --param overrides.
// Flag values win over file values.
func (f *requestFlags) parameters() (map[string]any, error) {
	params := map[string]any{}

	if f.paramsFile != "" {
		data, err := os.ReadFile(f.paramsFile)
		if err != nil {
			return nil, exitError(foundry.ExitFileReadError, "Failed to read params file", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, exitError(foundry.ExitInvalidArgument, "Malformed params file", err)
		}
	}

	for _, kv := range f.params {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, exitError(foundry.ExitInvalidArgument,
				"Invalid --param value", fmt.Errorf("expected key=value, got %q", kv))
		}
		params[key] = parseParamValue(raw)
	}

	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}

// parseParamValue interprets numbers, booleans, and null; anything
// that is not valid JSON stays a string.
func parseParamValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case float64, bool, nil:
		return v
	default:
		return raw
	}
}

func (f *requestFlags) extraArgs() (map[string]any, error) {
	if f.extraArgsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.extraArgsFile)
	if err != nil {
		return nil, exitError(foundry.ExitFileReadError, "Failed to read extra-args file", err)
	}
	extra := map[string]any{}
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Malformed extra-args file", err)
	}
	return extra, nil
}

// uploadNotebook puts a local file under the given S3 prefix and
// returns the resulting URI.
func uploadNotebook(ctx context.Context, localPath, prefix, region, profile string) (string, error) {
	dest, err := s3uri.Parse(prefix)
	if err != nil {
		return "", exitError(foundry.ExitInvalidArgument, "Invalid --upload prefix", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", exitError(foundry.ExitFileReadError, "Failed to open notebook", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", exitError(foundry.ExitFileReadError, "Failed to stat notebook", err)
	}

	client, err := storage.New(ctx, storage.Config{Region: region, Profile: profile})
	if err != nil {
		return "", exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage client", err)
	}

	key := filepath.Base(localPath)
	if dest.Key != "" {
		key = strings.TrimSuffix(dest.Key, "/") + "/" + key
	}
	if err := client.Put(ctx, dest.Bucket, key, f, info.Size()); err != nil {
		return "", exitError(foundry.ExitFileWriteError, "Failed to upload notebook", err)
	}

	uploaded := &s3uri.URI{Bucket: dest.Bucket, Key: key}
	return uploaded.String(), nil
}

// newRunner wires the execution pipeline against live AWS clients.
func newRunner(ctx context.Context) (*runner.Runner, error) {
	resolver, err := identity.NewResolver(ctx)
	if err != nil {
		return nil, exitError(foundry.ExitExternalServiceUnavailable, "Failed to initialize identity resolver", err)
	}
	submitter, err := submit.New(ctx)
	if err != nil {
		return nil, exitError(foundry.ExitExternalServiceUnavailable, "Failed to initialize job client", err)
	}
	return runner.New(resolver, submitter, runtimeConfig.ExecutionDefaults()), nil
}

// serviceExitError maps pipeline errors to exit codes. Request and
// override validation failures are argument errors; everything else is
// a service failure.
func serviceExitError(message string, err error) error {
	var reqErr *execution.RequestError
	var ovErr *execution.OverrideError
	switch {
	case errors.As(err, &reqErr), errors.As(err, &ovErr):
		return exitError(foundry.ExitInvalidArgument, message, err)
	case submit.IsJobNotFound(err), submit.IsNameInUse(err):
		return exitError(foundry.ExitInvalidArgument, message, err)
	default:
		return exitError(foundry.ExitExternalServiceUnavailable, message, err)
	}
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
