package domain

// Settings are the kiln.yaml values after defaults were applied.
type Settings struct {
	// Path is the file the settings were read from; empty for pure defaults.
	Path string

	Croot            string
	Channels         []string
	OverrideChannels bool
	SearchRoot       string
	KnownVersions    map[Axis][]string
	Publish          PublishSettings
}

// PublishBackend selects how artifacts are uploaded.
type PublishBackend string

const (
	// PublishTool uploads with an external command line tool.
	PublishTool PublishBackend = "tool"
	// PublishS3 uploads to an S3 compatible object store.
	PublishS3 PublishBackend = "s3"
)

// DefaultUploadTool is the external upload command used by PublishTool.
const DefaultUploadTool = "anaconda"

// PublishSettings configure the post-build upload.
type PublishSettings struct {
	Enabled bool
	Confirm bool
	Backend PublishBackend
	Tool    string
	S3      S3Settings
}

// S3Settings locate the bucket artifacts are uploaded to.
type S3Settings struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Secure    bool
}

// Command is a process the executor runs.
type Command struct {
	Args []string
	Dir  string
	Env  map[string]string
}
