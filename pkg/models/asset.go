package models

import "strings"

// AssetRecord is the durable metadata record for one stored object,
// keyed by file name. Attributes are merged in one at a time by the
// metadata consumer and never read-modify-written as a whole.
type AssetRecord struct {
	FileName   string            `json:"fileName"`
	Attributes map[string]string `json:"attributes"`
}

// RejectionNotice carries what a rejection email needs. It is built for
// one send and never persisted.
type RejectionNotice struct {
	FileKey string `json:"fileKey"`
	Reason  string `json:"reason"`
}

// ReasonUnsupportedType is the fixed reason attached to uploads that
// exhausted their retries on the ingest queue.
const ReasonUnsupportedType = "Unsupported file type"

// supportedExtensions is the full set of accepted upload types.
var supportedExtensions = []string{".jpeg", ".png"}

// IsSupportedUpload reports whether an object key names an accepted
// asset type. Matching is case-insensitive on the key's suffix; keys
// without an extension are rejected.
func IsSupportedUpload(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// allowedMetadataTypes is the attribute allow-list enforced at routing
// time by the gateway. AttributeAllowed exists for defensive checks in
// the metadata consumer; both must agree.
var allowedMetadataTypes = []string{"Caption", "Date", "Photographer"}

// AttributeAllowed reports whether the named attribute may be merged
// into an asset record.
func AttributeAllowed(name string) bool {
	for _, allowed := range allowedMetadataTypes {
		if name == allowed {
			return true
		}
	}
	return false
}
