package manifest

import "gopkg.in/yaml.v3"

// metaFile represents the structure of a recipe's meta.yaml.
type metaFile struct {
	Package struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"package"`

	Source struct {
		URL    string `yaml:"url"`
		Fn     string `yaml:"fn"`
		Path   string `yaml:"path"`
		SHA256 string `yaml:"sha256"`
	} `yaml:"source"`

	Build struct {
		Number       int        `yaml:"number"`
		String       string     `yaml:"string"`
		Script       stringList `yaml:"script"`
		NoarchPython bool       `yaml:"noarch_python"`
		ScriptEnv    []string   `yaml:"script_env"`
	} `yaml:"build"`

	Requirements struct {
		Build []string `yaml:"build"`
		Run   []string `yaml:"run"`
	} `yaml:"requirements"`

	Test struct {
		Commands []string `yaml:"commands"`
		Imports  []string `yaml:"imports"`
		Requires []string `yaml:"requires"`
		Files    []string `yaml:"files"`
	} `yaml:"test"`

	About map[string]string `yaml:"about"`
}

// stringList accepts either a scalar or a sequence of scalars.
type stringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Value != "" {
			*l = stringList{value.Value}
		}
		return nil
	}
	var items []string
	if err := value.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

// fields lists the keys each meta.yaml section may hold.
var fields = map[string][]string{
	"package": {"name", "version"},
	"source": {
		"fn", "url", "md5", "sha1", "sha256", "path",
		"git_url", "git_tag", "git_branch", "git_rev",
		"hg_url", "hg_tag", "svn_url", "svn_rev", "svn_ignore_externals",
		"patches",
	},
	"build": {
		"number", "string", "entry_points", "osx_is_app", "features",
		"track_features", "preserve_egg_dir", "no_link", "binary_relocation",
		"script", "noarch_python", "has_prefix_files", "binary_has_prefix_files",
		"detect_binary_files_with_prefix", "rpaths", "always_include_files",
		"skip", "msvc_compiler", "script_env",
	},
	"requirements": {"build", "run", "conflicts"},
	"app":          {"entry", "icon", "summary", "type", "cli_opts", "own_environment"},
	"test":         {"requires", "commands", "files", "imports"},
	"about":        {"home", "license", "license_file", "summary", "description", "readme", "dev_url", "doc_url"},
}
