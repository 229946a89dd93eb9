package plugin

// StorageStrategy tells the host what it may persist about search results.
type StorageStrategy string

const (
	// StoreReference lets the host keep only the result ID and re-fetch the
	// full entry through the plugin when it is needed again.
	StoreReference StorageStrategy = "store_reference"

	// StoreCopy lets the host keep a full copy of each result.
	StoreCopy StorageStrategy = "store_copy"
)

// QueryConfig describes a query plugin to the host.
type QueryConfig struct {
	StorageStrategy StorageStrategy `json:"storageStrategy"`
}

// DefaultQueryConfig returns the configuration used by plugins that read live
// data from another application: results are stored by reference only.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{StorageStrategy: StoreReference}
}
