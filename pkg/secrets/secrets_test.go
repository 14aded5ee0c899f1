package secrets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/google/go-cmp/cmp"
)

type mockSecretsManager struct {
	secretsmanageriface.SecretsManagerAPI
	out   *secretsmanager.GetSecretValueOutput
	err   error
	input *secretsmanager.GetSecretValueInput
}

func (m *mockSecretsManager) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

func TestCredentials(t *testing.T) {

	valid := `{"base_url":"https://notify.example.com/api","api_key":"key","api_key_secret":"shh"}`
	want := Credentials{BaseURL: "https://notify.example.com/api", APIKey: "key", APIKeySecret: "shh"}

	tt := []struct {
		name string
		out  *secretsmanager.GetSecretValueOutput
		err  error
		want Credentials
		msg  string
	}{
		{name: "string", out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(valid)}, want: want},
		{name: "binary", out: &secretsmanager.GetSecretValueOutput{SecretBinary: []byte(valid)}, want: want},
		{name: "not_found", err: awserr.New(secretsmanager.ErrCodeResourceNotFoundException, "no such secret", nil), msg: "failed to get secret"},
		{name: "empty", out: &secretsmanager.GetSecretValueOutput{}, msg: "secret has no value"},
		{name: "not_json", out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("key=shh")}, msg: "failed to unmarshal secret"},
		{name: "missing_secret", out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"base_url":"u","api_key":"k"}`)}, msg: "missing value in secret: api_key_secret"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			sm := &mockSecretsManager{out: tc.out, err: tc.err}
			p := NewProvider(sm, "notify/api")

			got, err := p.Credentials(context.Background())

			if aws.StringValue(sm.input.SecretId) != "notify/api" {
				t.Errorf("wrong secret id: %v", aws.StringValue(sm.input.SecretId))
			}

			if err != nil {
				if tc.msg == "" {
					t.Fatalf("unexpected error: %v", err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.msg) {
					t.Errorf("expected error %q, got: %q", tc.msg, msg)
				}
				var aerr *AccessError
				if !errors.As(err, &aerr) {
					t.Errorf("expected an AccessError, got %T", err)
				}
				return
			}
			if tc.msg != "" {
				t.Fatalf("expected error %q, got none", tc.msg)
			}

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected credentials (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAccessErrorUnwrap(t *testing.T) {

	cause := awserr.New(secretsmanager.ErrCodeResourceNotFoundException, "no such secret", nil)
	p := NewProvider(&mockSecretsManager{err: cause}, "notify/api")

	_, err := p.Credentials(context.Background())

	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected the aws error to be reachable, got %v", err)
	}
	if aerr.Code() != secretsmanager.ErrCodeResourceNotFoundException {
		t.Errorf("unexpected code: %v", aerr.Code())
	}
}
