package ctim

// SchemaVersion is stamped onto every identified primary entity.
const SchemaVersion = "1.0.14"

// Length ceilings, counted in Unicode code points.
const (
	DescriptionMaxLength      = 5000
	LanguageMaxLength         = 1024
	LikelyImpactMaxLength     = 5000
	ProducerMaxLength         = 1024
	ReasonMaxLength           = 1024
	ShortDescriptionMaxLength = 2048
	SourceMaxLength           = 2048
	SourceNameMaxLength       = 2048
	TagMaxLength              = 1024
	TestMechanismMaxLength    = 2048
	TitleMaxLength            = 1024
)

// Numeric bounds.
const (
	CountMinValue    = 0
	PriorityMinValue = 0
	PriorityMaxValue = 100
	RevisionMinValue = 0
)

// DispositionMap pairs disposition numbers with their names.
var DispositionMap = map[int]string{
	1: "Clean",
	2: "Malicious",
	3: "Suspicious",
	4: "Common",
	5: "Unknown",
}

// Dispositions lists the disposition numbers in order.
var Dispositions = []int{1, 2, 3, 4, 5}

// DispositionNames lists the disposition names in number order.
var DispositionNames = []string{"Clean", "Malicious", "Suspicious", "Common", "Unknown"}

// Choice lists. KillChainPhaseNameChoices, ObservableRelationChoices,
// RelationshipTypeChoices, ResolutionChoices and SensorChoices are
// informational: the schemas accept any non-blank string for those fields.

var BooleanOperatorChoices = []string{
	"and",
	"not",
	"or",
}

var ColumnTypeChoices = []string{
	"integer",
	"markdown",
	"number",
	"observable",
	"string",
	"url",
}

var ConfidenceChoices = []string{
	"High",
	"Info",
	"Low",
	"Medium",
	"None",
	"Unknown",
}

var IndicatorTypeChoices = []string{
	"Anonymization",
	"C2",
	"Compromised PKI Certificate",
	"Domain Watchlist",
	"Exfiltration",
	"File Hash Watchlist",
	"Host Characteristics",
	"IMEI Watchlist",
	"IMSI Watchlist",
	"IP Watchlist",
	"Login Name",
	"Malicious E-mail",
	"Malware Artifacts",
	"URL Watchlist",
}

var KillChainPhaseNameChoices = []string{
	"actions-on-objective",
	"command-and-control",
	"delivery",
	"exploitation",
	"installation",
	"reconnaissance",
	"weaponization",
}

var ObservableTypeChoices = []string{
	"amp_computer_guid",
	"cisco_mid",
	"device",
	"domain",
	"email",
	"email_messageid",
	"email_subject",
	"file_name",
	"file_path",
	"hostname",
	"imei",
	"imsi",
	"ip",
	"ipv6",
	"mac_address",
	"md5",
	"mutex",
	"ngfw_id",
	"ngfw_name",
	"odns_identity",
	"odns_identity_label",
	"pki_serial",
	"sha1",
	"sha256",
	"url",
	"user",
}

var ObservableRelationChoices = []string{
	"Allocated",
	"Allocated_By",
	"Attached_To",
	"Bound",
	"Bound_By",
	"Characterized_By",
	"Characterizes",
	"Child_Of",
	"Closed",
	"Closed_By",
	"Compressed",
	"Compressed_By",
	"Compressed_From",
	"Compressed_Into",
	"Connected_From",
	"Connected_To",
	"Contained_Within",
	"Contains",
	"Copied",
	"Copied_By",
	"Copied_From",
	"Copied_To",
	"Created",
	"Created_By",
	"Decoded",
	"Decoded_By",
	"Decompressed",
	"Decompressed_By",
	"Decrypted",
	"Decrypted_By",
	"Deleted",
	"Deleted_By",
	"Deleted_From",
	"Downloaded",
	"Downloaded_By",
	"Downloaded_From",
	"Downloaded_To",
	"Dropped",
	"Dropped_By",
	"Encoded",
	"Encoded_By",
	"Encrypted",
	"Encrypted_By",
	"Encrypted_From",
	"Encrypted_To",
	"Extracted_From",
	"FQDN_Of",
	"Freed",
	"Freed_By",
	"Hooked",
	"Hooked_By",
	"Initialized_By",
	"Initialized_To",
	"Injected",
	"Injected_As",
	"Injected_By",
	"Injected_Into",
	"Installed",
	"Installed_By",
	"Joined",
	"Joined_By",
	"Killed",
	"Killed_By",
	"Listened_On",
	"Listened_On_By",
	"Loaded_From",
	"Loaded_Into",
	"Locked",
	"Locked_By",
	"Mapped_By",
	"Mapped_Into",
	"Merged",
	"Merged_By",
	"Modified_Properties_Of",
	"Monitored",
	"Monitored_By",
	"Moved",
	"Moved_By",
	"Moved_From",
	"Moved_To",
	"Opened",
	"Opened_By",
	"Packed",
	"Packed_By",
	"Packed_From",
	"Packed_Into",
	"Parent_Of",
	"Paused",
	"Paused_By",
	"Previously_Contained",
	"Properties_Modified_By",
	"Properties_Queried",
	"Properties_Queried_By",
	"Read_From",
	"Read_From_By",
	"Received",
	"Received_By",
	"Received_From",
	"Received_Via_Upload",
	"Redirects_To",
	"Refers_To",
	"Related_To",
	"Renamed",
	"Renamed_By",
	"Renamed_From",
	"Renamed_To",
	"Resolved_To",
	"Resumed",
	"Resumed_By",
	"Root_Domain_Of",
	"Searched_For",
	"Searched_For_By",
	"Sent",
	"Sent_By",
	"Sent_To",
	"Sent_Via_Upload",
	"Set_From",
	"Set_To",
	"Sub-domain_Of",
	"Supra-domain_Of",
	"Suspended",
	"Suspended_By",
	"Unhooked",
	"Unhooked_By",
	"Unlocked",
	"Unlocked_By",
	"Unpacked",
	"Unpacked_By",
	"Uploaded",
	"Uploaded_By",
	"Uploaded_From",
	"Uploaded_To",
	"Used",
	"Used_By",
	"Values_Enumerated",
	"Values_Enumerated_By",
	"Written_To_By",
	"Wrote_To",
}

var RelationshipTypeChoices = []string{
	"attributed-to",
	"based-on",
	"derived-from",
	"detects",
	"duplicate-of",
	"element-of",
	"exploits",
	"indicates",
	"member-of",
	"mitigates",
	"related-to",
	"sighting-of",
	"targets",
	"uses",
	"variant-of",
}

var ResolutionChoices = []string{
	"allowed",
	"blocked",
	"contained",
	"detected",
}

var SensorChoices = []string{
	"endpoint",
	"endpoint.digital-telephone-handset",
	"endpoint.laptop",
	"endpoint.pos-terminal",
	"endpoint.printer",
	"endpoint.sensor",
	"endpoint.server",
	"endpoint.smart-meter",
	"endpoint.smart-phone",
	"endpoint.tablet",
	"endpoint.workstation",
	"network",
	"network.bridge",
	"network.firewall",
	"network.gateway",
	"network.guard",
	"network.hips",
	"network.hub",
	"network.ids",
	"network.ips",
	"network.modem",
	"network.nic",
	"network.proxy",
	"network.router",
	"network.security_manager",
	"network.sense_making",
	"network.sensor",
	"network.switch",
	"network.vpn",
	"network.wap",
	"process",
	"process.aaa-server",
	"process.anti-virus-scanner",
	"process.connection-scanner",
	"process.directory-service",
	"process.dns-server",
	"process.email-service",
	"process.file-scanner",
	"process.location-service",
	"process.network-scanner",
	"process.remediation-service",
	"process.reputation-service",
	"process.sandbox",
	"process.virtualization-service",
	"process.vulnerability-scanner",
}

var SeverityChoices = []string{
	"High",
	"Info",
	"Low",
	"Medium",
	"None",
	"Unknown",
}

var SpecificationTypeChoices = []string{
	"Judgement",
	"ThreatBrain",
	"Snort",
	"SIOC",
	"OpenIOC",
}

var TLPChoices = []string{
	"amber",
	"green",
	"red",
	"white",
}
