package domain

// Feature names one repository capability. Adapters advertise the set they
// implement and the manager gates operations on the enabled subset.
type Feature string

const (
	FeatureStoreExist    Feature = "store.exist"
	FeatureStoreExists   Feature = "store.exists"
	FeatureQueryExists   Feature = "query.exists"
	FeatureStoreGet      Feature = "store.get"
	FeatureStoreGets     Feature = "store.gets"
	FeatureStoreGetAll   Feature = "store.getall"
	FeatureQueryGets     Feature = "query.gets"
	FeatureStoreCreate   Feature = "store.create"
	FeatureStoreReplace  Feature = "store.replace"
	FeatureStoreUpdate   Feature = "store.update"
	FeatureStoreUpdates  Feature = "store.updates"
	FeatureQueryUpdates  Feature = "query.updates"
	FeatureStoreDelete   Feature = "store.delete"
	FeatureStoreDeletes  Feature = "store.deletes"
	FeatureQueryDeletes  Feature = "query.deletes"
	FeatureStoreCountAll Feature = "store.countall"
	FeatureStoreCount    Feature = "store.count"
	FeatureQueryCount    Feature = "query.count"
)

// AllFeatures lists every known repository feature.
var AllFeatures = []Feature{
	FeatureStoreExist,
	FeatureStoreExists,
	FeatureQueryExists,
	FeatureStoreGet,
	FeatureStoreGets,
	FeatureStoreGetAll,
	FeatureQueryGets,
	FeatureStoreCreate,
	FeatureStoreReplace,
	FeatureStoreUpdate,
	FeatureStoreUpdates,
	FeatureQueryUpdates,
	FeatureStoreDelete,
	FeatureStoreDeletes,
	FeatureQueryDeletes,
	FeatureStoreCountAll,
	FeatureStoreCount,
	FeatureQueryCount,
}

// Capabilities is the set of features an adapter implements.
type Capabilities map[Feature]bool

// Support reports whether a feature is in the set.
func (c Capabilities) Support(f Feature) bool { return c[f] }

// FullCapabilities returns a set containing every known feature.
func FullCapabilities() Capabilities {
	caps := make(Capabilities, len(AllFeatures))
	for _, f := range AllFeatures {
		caps[f] = true
	}
	return caps
}
