package discovery

// Device is the Home Assistant device block shared by a group of entities.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

// Manifest is one entity's discovery document. Only the fields relevant to
// the entity's component are set; the rest are omitted from the JSON.
type Manifest struct {
	Name         string `json:"name"`
	UniqueID     string `json:"unique_id"`
	StateTopic   string `json:"state_topic,omitempty"`
	CommandTopic string `json:"command_topic,omitempty"`

	AvailabilityTopic    string `json:"availability_topic,omitempty"`
	AvailabilityTemplate string `json:"availability_template,omitempty"`

	// switch
	PayloadOn  string `json:"payload_on,omitempty"`
	PayloadOff string `json:"payload_off,omitempty"`

	// number
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`

	// select; a non-nil pointer keeps an empty list in the JSON as [].
	Options *[]string `json:"options,omitempty"`

	Device Device `json:"device"`
}

// Component kinds used in discovery topics.
const (
	kindSwitch = "switch"
	kindNumber = "number"
	kindSensor = "sensor"
	kindSelect = "select"
	kindButton = "button"
)

// entity pairs a manifest with where it is published.
type entity struct {
	kind     string
	node     string // e.g. htd_lync_zone_3
	control  string // e.g. volume
	manifest Manifest
}

func intPtr(v int) *int { return &v }
