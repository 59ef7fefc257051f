package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	KratosAdminURL string `envconfig:"kratos_admin_url" required:"true"`
	// KratosWebhookAPIKey is the shared secret Kratos sends with webhook
	// deliveries; the registration webhook rejects everything when unset.
	KratosWebhookAPIKey string `envconfig:"kratos_webhook_api_key"`

	// RegistrationBaseURL is where invitation links point, the token value is
	// appended as a query parameter.
	RegistrationBaseURL string `envconfig:"registration_base_url" required:"true"`

	InvitationLifetime string `envconfig:"invitation_lifetime" default:"168h"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	AuthenticationEnabled bool `envconfig:"authentication_enabled" default:"false"`
	// OIDCIssuer and JWKSUrl configure JWT verification, required when
	// authentication is enabled.
	OIDCIssuer string `envconfig:"oidc_issuer"`
	JWKSUrl    string `envconfig:"jwks_url"`
	// ServiceAccountSubjects lists JWT subjects trusted as service accounts.
	ServiceAccountSubjects []string `envconfig:"service_account_subjects"`
	OperatorScope          string   `envconfig:"operator_scope" default:"elevation:operator"`

	AuthorizationEnabled bool   `envconfig:"authorization_enabled" default:"false"`
	OpenfgaApiScheme     string `envconfig:"openfga_api_scheme" default:""`
	OpenfgaApiHost       string `envconfig:"openfga_api_host"`
	OpenfgaApiToken      string `envconfig:"openfga_api_token"`
	OpenfgaStoreId       string `envconfig:"openfga_store_id"`
	OpenfgaModelId       string `envconfig:"openfga_authorization_model_id" default:""`
}
