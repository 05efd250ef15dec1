package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func marshal(t *testing.T, v interface{}) bson.Raw {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestDetectClusterType(t *testing.T) {
	adf := marshal(t, bson.M{
		"version":  "7.0.0",
		"dataLake": bson.M{"version": "v20240101", "mongoSQLVersion": "v2.0.0"},
	})
	assert.Equal(t, ClusterAtlasDataFederation, DetectClusterType(adf))

	enterprise := marshal(t, bson.M{
		"version": "7.0.5",
		"modules": bson.A{"enterprise"},
	})
	assert.Equal(t, ClusterEnterprise, DetectClusterType(enterprise))

	community := marshal(t, bson.M{
		"version": "7.0.5",
		"modules": bson.A{},
	})
	assert.Equal(t, ClusterCommunity, DetectClusterType(community))

	noModules := marshal(t, bson.M{"version": "6.0.0"})
	assert.Equal(t, ClusterCommunity, DetectClusterType(noModules))
}

func TestClusterTypeString(t *testing.T) {
	assert.Equal(t, "community", ClusterCommunity.String())
	assert.Equal(t, "enterprise", ClusterEnterprise.String())
	assert.Equal(t, "atlas-data-federation", ClusterAtlasDataFederation.String())
}
