package portal

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
)

// createSecretWorkflow stores secrets requested through repository_dispatch.
const createSecretWorkflow = `name: Create Secret

on:
  repository_dispatch:
    types: [create-secret]

permissions:
  contents: read

jobs:
  create:
    runs-on: ubuntu-latest
    steps:
      - name: Store secret
        env:
          GH_TOKEN: ${{ secrets.SECRETS_ADMIN_TOKEN }}
          SECRET_NAME: ${{ github.event.client_payload.secret_name }}
          SECRET_VALUE: ${{ github.event.client_payload.secret_value }}
        run: |
          echo "::add-mask::$SECRET_VALUE"
          if ! echo "$SECRET_NAME" | grep -Eq '^[A-Z_][A-Z0-9_]*$'; then
            echo "invalid secret name: $SECRET_NAME" >&2
            exit 1
          fi
          printf '%s' "$SECRET_VALUE" | gh secret set "$SECRET_NAME" --repo "$GITHUB_REPOSITORY"
          echo "Secret $SECRET_NAME stored (requested ${{ github.event.client_payload.timestamp }})"
`

const extractWorkflow = `name: Extract Secrets

on:
  workflow_dispatch:
    inputs:
      file:
        description: File to scan
        default: secrets.env
      format:
        description: Output format (json, env, yaml, csv)
        default: json

jobs:
  extract:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: stable
      - run: go build -o bin/extract-secrets ./cmd/extract-secrets
      - run: ./bin/extract-secrets --file "${{ inputs.file }}" --format "${{ inputs.format }}"
      - uses: actions/upload-artifact@v4
        with:
          name: extracted-secrets
          path: output/
          retention-days: 1
`

const gitlabPipeline = `stages: [extract]
extract:
  stage: extract
  image: golang:1.25
  when: manual
  variables:
    EXTRACT_FILE: secrets.env
    EXTRACT_FORMAT: json
  script:
    - go version
    - go build -o bin/extract-secrets ./cmd/extract-secrets
    - ./bin/extract-secrets --file "$EXTRACT_FILE" --format "$EXTRACT_FORMAT"
  artifacts:
    when: on_success
    expire_in: 1 day
    paths:
      - output/
`

func init() {
	ci := &cobra.Command{Use: "ci", Short: "CI template helpers for multiple providers"}
	rootCmd.AddCommand(ci)

	var provider string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write CI workflow templates for your provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var templates map[string]string
			switch provider {
			case "github":
				templates = map[string]string{
					filepath.Join(".github", "workflows", "create-secret.yml"):   createSecretWorkflow,
					filepath.Join(".github", "workflows", "extract-secrets.yml"): extractWorkflow,
				}
			case "gitlab":
				templates = map[string]string{".gitlab-ci.yml": gitlabPipeline}
			default:
				return fmt.Errorf("unknown --provider. Supported: github, gitlab")
			}
			for _, path := range slices.Sorted(maps.Keys(templates)) {
				if !force {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", path)
					}
				}
			}
			for _, path := range slices.Sorted(maps.Keys(templates)) {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(path, []byte(templates[path]), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			}
			return nil
		},
	}
	initCmd.Flags().StringVar(&provider, "provider", "github", "CI provider: github | gitlab")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	ci.AddCommand(initCmd)
}
