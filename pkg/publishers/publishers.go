package publishers

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-news-search/pkg/configfile"
)

const (
	// Supported publisher types.
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
	TypeHTTP      = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig is one sink declared in the publishers file. Searches
// restricts the sink to events from the listed saved-search ids; an empty
// list routes every search to it.
type PublisherConfig struct {
	ID       string               `json:"id" yaml:"id"`
	Type     string               `json:"type" yaml:"type"`
	Enabled  *bool                `json:"enabled" yaml:"enabled"`
	Searches []string             `json:"searches" yaml:"searches"`
	SQS      *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS      *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub   *GCPQueueConfig      `json:"pubsub" yaml:"pubsub"`
	HTTP     *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// AWSAccess holds region and optional static credentials.
type AWSAccess struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSAccess `yaml:",inline"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSAccess `yaml:",inline"`
}

// GCPQueueConfig holds Google Cloud Pub/Sub settings.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds webhook settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConfigRegistry holds the publisher definitions of one publishers file.
type ConfigRegistry struct {
	mu         sync.RWMutex
	publishers []PublisherConfig
	idx        map[string]PublisherConfig
}

// LoadRegistry loads publishers from a YAML/JSON file. Every string value
// except id and type may reference environment variables as ${NAME}.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	var file configFile
	if err := configfile.Decode(path, "publishers", &file); err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(file.Publishers)),
		idx:        make(map[string]PublisherConfig, len(file.Publishers)),
	}
	for i, raw := range file.Publishers {
		cfg := raw.normalized()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.publishers = append(reg.publishers, cfg)
		reg.idx[cfg.ID] = cfg
	}
	return reg, nil
}

func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}

	var searches []string
	for _, id := range cfg.Searches {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(searches, id) {
			searches = append(searches, id)
		}
	}
	cfg.Searches = searches

	if cfg.SQS != nil {
		c := *cfg.SQS
		c.QueueURL = configfile.Expand(c.QueueURL)
		c.AWSAccess = c.AWSAccess.expanded()
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		c.TopicARN = configfile.Expand(c.TopicARN)
		c.AWSAccess = c.AWSAccess.expanded()
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		c.ProjectID = configfile.Expand(c.ProjectID)
		c.Topic = configfile.Expand(c.Topic)
		c.CredentialsFile = configfile.Expand(c.CredentialsFile)
		cfg.PubSub = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = configfile.Expand(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = configfile.ExpandMap(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}
	return cfg
}

func (a AWSAccess) expanded() AWSAccess {
	a.Region = configfile.Expand(a.Region)
	a.AccessKeyID = configfile.Expand(a.AccessKeyID)
	a.SecretAccessKey = configfile.Expand(a.SecretAccessKey)
	a.SessionToken = configfile.Expand(a.SessionToken)
	a.Endpoint = configfile.Expand(a.Endpoint)
	return a
}

func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	var missing []string
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeSQS:
		if cfg.SQS == nil {
			return fmt.Errorf("sqs config required for publisher %q", cfg.ID)
		}
		missing = requireFields(map[string]string{"sqs.uri": cfg.SQS.QueueURL, "sqs.region": cfg.SQS.Region})
	case TypeSNS:
		if cfg.SNS == nil {
			return fmt.Errorf("sns config required for publisher %q", cfg.ID)
		}
		missing = requireFields(map[string]string{"sns.topic_arn": cfg.SNS.TopicARN, "sns.region": cfg.SNS.Region})
	case TypeGCPPubSub:
		if cfg.PubSub == nil {
			return fmt.Errorf("pubsub config required for publisher %q", cfg.ID)
		}
		missing = requireFields(map[string]string{"pubsub.project_id": cfg.PubSub.ProjectID, "pubsub.topic": cfg.PubSub.Topic})
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for publisher %q", cfg.ID)
		}
		missing = requireFields(map[string]string{"http.url": cfg.HTTP.URL})
	default:
		return fmt.Errorf("unknown type %q for publisher %q", cfg.Type, cfg.ID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required for publisher %q", strings.Join(missing, ", "), cfg.ID)
	}
	return nil
}

// requireFields returns the sorted names of empty fields.
func requireFields(fields map[string]string) []string {
	var missing []string
	for name, v := range fields {
		if v == "" {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing
}

// Routes reports whether events of the saved search id go to this publisher.
func (cfg PublisherConfig) Routes(searchID string) bool {
	return len(cfg.Searches) == 0 || slices.Contains(cfg.Searches, searchID)
}

// CheckSearches verifies that enabled publishers only reference known saved
// searches and that every search in enabledSearches reaches at least one
// enabled publisher.
func (r *ConfigRegistry) CheckSearches(known, enabledSearches []string) error {
	pubs := r.Enabled()
	var errs []error
	for _, cfg := range pubs {
		for _, id := range cfg.Searches {
			if !slices.Contains(known, id) {
				errs = append(errs, fmt.Errorf("publisher %q references unknown search %q", cfg.ID, id))
			}
		}
	}
	for _, id := range enabledSearches {
		routed := slices.ContainsFunc(pubs, func(cfg PublisherConfig) bool { return cfg.Routes(id) })
		if !routed {
			errs = append(errs, fmt.Errorf("search %q is not routed to any enabled publisher", id))
		}
	}
	return errors.Join(errs...)
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[strings.TrimSpace(id)]
	return cfg, ok
}

// All returns all configured publishers in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.publishers)
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
