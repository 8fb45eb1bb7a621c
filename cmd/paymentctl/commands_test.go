package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	paymentgateway "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/payment-gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignCmd(t *testing.T) {
	body := `{"event":"charge.success","data":{"reference":"CC-20250101-AB12","amount":3000}}`

	type TestCase struct {
		Name           string
		Config         config.Config
		Args           []string
		Stdin          string
		ExpectedOutput string
		ExpectedError  string
	}

	testCases := []TestCase{
		{
			Name:           "Secret from config",
			Config:         config.Config{PaystackConfig: config.PaystackConfig{SecretKey: "sk_test_cli"}},
			Stdin:          body,
			ExpectedOutput: paymentgateway.ComputeSignature("sk_test_cli", []byte(body)) + "\n",
		},
		{
			Name:           "Secret flag overrides config",
			Config:         config.Config{PaystackConfig: config.PaystackConfig{SecretKey: "sk_test_cli"}},
			Args:           []string{"-", "--secret", "sk_test_flag"},
			Stdin:          body,
			ExpectedOutput: paymentgateway.ComputeSignature("sk_test_flag", []byte(body)) + "\n",
		},
		{
			Name:          "No secret",
			Stdin:         body,
			ExpectedError: "no secret",
		},
		{
			Name:          "Invalid payload",
			Config:        config.Config{PaystackConfig: config.PaystackConfig{SecretKey: "sk_test_cli"}},
			Stdin:         `{"event":`,
			ExpectedError: "not valid JSON",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			conf := tc.Config
			cmd := signCmd(&conf)

			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetIn(strings.NewReader(tc.Stdin))
			cmd.SetArgs(append([]string{}, tc.Args...))

			err := cmd.Execute()
			if tc.ExpectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.ExpectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedOutput, out.String())
		})
	}
}

func TestOpenServices_RequiresMongoDB(t *testing.T) {
	_, err := openServices(&config.Config{})
	assert.EqualError(t, err, "MONGODB_URI is required")
}
