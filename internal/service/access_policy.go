package service

import (
	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

// CanManageSurvey 问卷管理权限：平台管理员放行,业务管理员限本业务问卷
func CanManageSurvey(claims *util.Claims, survey *model.Survey) bool {
	if claims == nil {
		return false
	}
	if claims.Role == model.RoleSuperAdmin {
		return true
	}
	if claims.Role == model.RoleBusinessAdmin {
		return claims.BusinessID != nil && *claims.BusinessID == survey.BusinessID
	}
	return false
}

// CanSubmitSurvey 受限问卷只对同业务的受众开放；管理员不受限
func CanSubmitSurvey(claims *util.Claims, survey *model.Survey) error {
	if !survey.IsRestricted || claims.IsAdmin() {
		return nil
	}
	if claims == nil || claims.BusinessID == nil || *claims.BusinessID != survey.BusinessID {
		return util.ErrAudienceDenied
	}
	return nil
}
