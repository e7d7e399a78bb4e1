package rest

import (
	"encoding/json"
	"testing"

	"uiconfig/core/profile/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAPIModel(t *testing.T) {
	p := domain.Profile{
		ID:                "id",
		DisplayName:       "Profile",
		DesiredProperties: json.RawMessage(`{"key":"value"}`),
		ETag:              "etag",
	}
	m := toAPIModel(p)
	assert.Equal(t, "id", m.Id)
	assert.Equal(t, "Profile", m.DisplayName)
	assert.JSONEq(t, `{"key":"value"}`, string(m.DesiredProperties))
	assert.Equal(t, "etag", m.ETag)
	assert.Equal(t, map[string]string{
		"$type": "DeviceGroup;1",
		"$url":  "/v1/devicegroups/id",
	}, m.Metadata)
}

func TestToDomainModelDropsIdentity(t *testing.T) {
	m := ProfileAPIModel{
		Id:                "spoofed",
		DisplayName:       "Profile",
		DesiredProperties: json.RawMessage(`{"key":"value"}`),
		ETag:              "spoofed-etag",
	}
	assert.Equal(t, domain.Profile{
		DisplayName:       "Profile",
		DesiredProperties: json.RawMessage(`{"key":"value"}`),
	}, toDomainModel(m))
}

func TestModelRoundTripKeepsContent(t *testing.T) {
	p := domain.Profile{
		ID:                "x",
		DisplayName:       "name",
		DesiredProperties: json.RawMessage(`{"a":{"b":[1,2,3]}}`),
		ETag:              "v:3",
	}
	back := toDomainModel(toAPIModel(p))
	assert.Equal(t, p.DisplayName, back.DisplayName)
	assert.JSONEq(t, string(p.DesiredProperties), string(back.DesiredProperties))
	assert.Empty(t, back.ID)
	assert.Empty(t, back.ETag)
}

func TestToAPIList(t *testing.T) {
	empty := toAPIList(nil)
	require.NotNil(t, empty.Items)
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Items":[],"$metadata":{"$type":"ProfileList;1","$url":"/v1/Profiles"}}`, string(raw))

	list := toAPIList([]domain.Profile{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	require.Len(t, list.Items, 3)
	assert.Equal(t, "b", list.Items[0].Id)
	assert.Equal(t, "a", list.Items[1].Id)
	assert.Equal(t, "c", list.Items[2].Id)
	assert.Equal(t, "/v1/devicegroups/a", list.Items[1].Metadata["$url"])
}

func TestAPIModelWireNames(t *testing.T) {
	raw, err := json.Marshal(toAPIModel(domain.Profile{
		ID:                "id",
		DisplayName:       "n",
		DesiredProperties: json.RawMessage(`{"k":1}`),
		ETag:              "e",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Id": "id",
		"DisplayName": "n",
		"DesiredProperties": {"k": 1},
		"ETag": "e",
		"$metadata": {"$type": "DeviceGroup;1", "$url": "/v1/devicegroups/id"}
	}`, string(raw))
}
