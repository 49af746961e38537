package config

// EnvPrefix is handed to envconfig; every field carries an explicit name.
const EnvPrefix = "SERVICO"

const AppEnvDev = "dev"

const (
	PushProviderFCM = "fcm"
	PushProviderSNS = "sns"
)

const (
	EnvAppEnv                 = "SERVICO_APP_ENV"
	EnvDBDSN                  = "SERVICO_DB_DSN"
	EnvDBHost                 = "SERVICO_DB_HOST"
	EnvDBUser                 = "SERVICO_DB_USER"
	EnvDBName                 = "SERVICO_DB_NAME"
	EnvRedisURL               = "SERVICO_REDIS_URL"
	EnvGCPProjectID           = "SERVICO_GCP_PROJECT_ID"
	EnvPubSubStoreEventsTopic = "SERVICO_PUBSUB_STORE_EVENTS_TOPIC"
	EnvPubSubStoreEventsSub   = "SERVICO_PUBSUB_STORE_EVENTS_SUBSCRIPTION"
	EnvPushProvider           = "SERVICO_PUSH_PROVIDER"
	EnvFCMProjectID           = "SERVICO_FCM_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
