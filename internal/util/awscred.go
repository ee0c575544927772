// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package util

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SQLPasswordEnv allows bypassing Secrets Manager lookups (e.g., smoketests
// and local runs). When set (even to an empty string), ResolveDBPassword
// returns the value directly.
const SQLPasswordEnv = "TABLE_EXPORT_SQL_PASSWORD" //nolint:gosec // env var name, not a credential

// GetPasswordFromSecretsManager retrieves the database password from AWS
// Secrets Manager. The secret JSON is expected to contain a "password" field.
func GetPasswordFromSecretsManager(secretName, region string) (string, error) {
	if secretName == "" {
		return "", fmt.Errorf("secret name is required for Secrets Manager")
	}
	if region == "" {
		return "", fmt.Errorf("region is required for Secrets Manager")
	}

	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return "", fmt.Errorf("create AWS config: %w", err)
	}

	svc := secretsmanager.NewFromConfig(awsCfg)
	out, err := svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", fmt.Errorf("get secret value: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret string empty for %s", secretName)
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return "", fmt.Errorf("parse secret json: %w", err)
	}
	if payload.Password == "" {
		return "", fmt.Errorf("password field empty in secret %s", secretName)
	}

	return payload.Password, nil
}

// ResolveDBPassword returns the database password for the SQL accessor.
// Priority: explicit password > SQLPasswordEnv > Secrets Manager lookup.
// An empty result with no secret configured is allowed (passwordless local
// databases).
func ResolveDBPassword(password, secretName, region string) (string, error) {
	if password != "" {
		return password, nil
	}
	if pwd, ok := os.LookupEnv(SQLPasswordEnv); ok {
		return pwd, nil
	}
	if secretName == "" {
		return "", nil
	}
	return GetPasswordFromSecretsManager(secretName, region)
}
