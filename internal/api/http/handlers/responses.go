package handlers

import (
	"encoding/json"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/api/dto"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

func userResponse(user *domain.User) dto.UserResponse {
	regions := user.ResponsibleRegions
	if regions == nil {
		regions = []string{}
	}
	return dto.UserResponse{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               string(user.Role),
		HomeRegion:         user.HomeRegion,
		ResponsibleRegions: regions,
		ManagerID:          user.ManagerID,
		Active:             user.Active,
		CreatedAt:          user.CreatedAt,
	}
}

func userResponses(users []domain.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return items
}

func principalResponse(p access.Principal) dto.PrincipalResponse {
	regions := p.ResponsibleRegions
	if regions == nil {
		regions = []string{}
	}
	return dto.PrincipalResponse{
		ID:                 p.UserID,
		Name:               p.Name,
		Email:              p.Email,
		Role:               string(p.Role),
		HomeRegion:         p.HomeRegion,
		ResponsibleRegions: regions,
	}
}

func demandResponse(d *domain.Demand) dto.DemandResponse {
	return dto.DemandResponse{
		ID:              d.ID,
		Code:            d.Code,
		Consultant:      d.Consultant,
		Client:          d.Client,
		Contact:         d.Contact,
		PropertyType:    d.PropertyType,
		DesiredArea:     d.DesiredArea,
		TargetRegion:    d.TargetRegion,
		RentRange:       d.RentRange,
		DesiredFeatures: d.DesiredFeatures,
		Deadline:        d.Deadline,
		Notes:           d.Notes,
		CreatedByID:     d.CreatedByID,
		CreatedAt:       d.CreatedAt,
		HasMission:      d.HasMission,
	}
}

func demandResponses(demands []domain.Demand) []dto.DemandResponse {
	items := make([]dto.DemandResponse, 0, len(demands))
	for i := range demands {
		items = append(items, demandResponse(&demands[i]))
	}
	return items
}

func missionResponse(m *domain.Mission) dto.MissionResponse {
	return dto.MissionResponse{
		ID:                m.ID,
		DemandID:          m.DemandID,
		DemandCode:        m.DemandCode,
		AgentID:           m.AgentID,
		AgentName:         m.AgentName,
		Consultant:        m.Consultant,
		SubArea:           m.SubArea,
		SearchDescription: m.SearchDescription,
		Status:            string(m.Status),
		Region:            m.Region,
		CreatedAt:         m.CreatedAt,
		FoundAt:           m.FoundAt,
		LeasedAt:          m.LeasedAt,
		ReturnedAt:        m.ReturnedAt,
		CreatedByID:       m.CreatedByID,
	}
}

func missionResponses(missions []domain.Mission) []dto.MissionResponse {
	items := make([]dto.MissionResponse, 0, len(missions))
	for i := range missions {
		items = append(items, missionResponse(&missions[i]))
	}
	return items
}

func interactionResponse(i *domain.Interaction) dto.InteractionResponse {
	return dto.InteractionResponse{
		ID:          i.ID,
		MissionID:   i.MissionID,
		UserID:      i.UserID,
		UserName:    i.UserName,
		Description: i.Description,
		CreatedAt:   i.CreatedAt,
	}
}

func regionResponse(r *domain.RegionConfig) dto.RegionResponse {
	settings := r.Settings
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}
	resp := dto.RegionResponse{
		ID:        r.ID,
		Key:       r.Key,
		ManagerID: r.ManagerID,
		Active:    r.Active,
		Settings:  settings,
	}
	if !r.CreatedAt.IsZero() {
		created := r.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}
