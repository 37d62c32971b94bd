package config

// Kilnfile represents the structure of the kiln.yaml configuration file.
type Kilnfile struct {
	Version          string              `yaml:"version"`
	Croot            string              `yaml:"croot"`
	Channels         []string            `yaml:"channels"`
	OverrideChannels bool                `yaml:"override_channels"`
	SearchRoot       string              `yaml:"search_root"`
	Versions         map[string][]string `yaml:"versions"`
	Publish          *PublishDTO         `yaml:"publish"`
}

// PublishDTO represents the publish section of kiln.yaml.
type PublishDTO struct {
	Enabled bool   `yaml:"enabled"`
	Confirm bool   `yaml:"confirm"`
	Backend string `yaml:"backend"`
	Tool    string `yaml:"tool"`
	S3      *S3DTO `yaml:"s3"`
}

// S3DTO represents the object store settings of the publish section.
type S3DTO struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    *bool  `yaml:"secure"`
}
