package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// PlanIDParam はパスパラメータ planId の名前です。
const PlanIDParam = "planId"

// BindPlanID はパスパラメータ planId を simple スタイルでバインドします。
func BindPlanID(c *gin.Context) (string, error) {
	var planID string
	err := runtime.BindStyledParameterWithOptions("simple", PlanIDParam, c.Param(PlanIDParam), &planID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter %s: %w", PlanIDParam, err)
	}
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return "", fmt.Errorf("parameter %s is required", PlanIDParam)
	}
	return planID, nil
}
