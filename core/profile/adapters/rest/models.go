// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rest

import (
	"encoding/json"
	"fmt"

	"uiconfig/core/profile/domain"
)

const (
	VersionNumber = 1
	VersionPath   = "v1"
)

const (
	metaType = "$type"
	metaURL  = "$url"
)

type (
	ProfileAPIModel struct {
		Id                string            `json:"Id"`
		DisplayName       string            `json:"DisplayName"`
		DesiredProperties json.RawMessage   `json:"DesiredProperties"`
		ETag              string            `json:"ETag"`
		Metadata          map[string]string `json:"$metadata"`
	}

	ProfileListAPIModel struct {
		Items    []ProfileAPIModel `json:"Items"`
		Metadata map[string]string `json:"$metadata"`
	}
)

// The "DeviceGroup" naming is part of the published wire format and is kept
// as clients see it today.
func profileMetadata(id string) map[string]string {
	return map[string]string{
		metaType: fmt.Sprintf("DeviceGroup;%d", VersionNumber),
		metaURL:  fmt.Sprintf("/%s/devicegroups/%s", VersionPath, id),
	}
}

func listMetadata() map[string]string {
	return map[string]string{
		metaType: fmt.Sprintf("ProfileList;%d", VersionNumber),
		metaURL:  fmt.Sprintf("/%s/Profiles", VersionPath),
	}
}

func toAPIModel(p domain.Profile) ProfileAPIModel {
	return ProfileAPIModel{
		Id:                p.ID,
		DisplayName:       p.DisplayName,
		DesiredProperties: p.DesiredProperties,
		ETag:              p.ETag,
		Metadata:          profileMetadata(p.ID),
	}
}

// toDomainModel drops Id and ETag. Identity comes from the path and the etag
// travels separately as the update precondition.
func toDomainModel(m ProfileAPIModel) domain.Profile {
	return domain.Profile{
		DisplayName:       m.DisplayName,
		DesiredProperties: m.DesiredProperties,
	}
}

func toAPIList(profiles []domain.Profile) ProfileListAPIModel {
	items := make([]ProfileAPIModel, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toAPIModel(p))
	}
	return ProfileListAPIModel{Items: items, Metadata: listMetadata()}
}
