package application

import (
	"context"
	"fmt"

	"photo-market/internal/domain/model"
)

type routeKey struct {
	step model.RegistrationStep
	kind Kind
}

// stepHandler runs one turn of the dialogue. It saves the session itself when it changes it.
type stepHandler func(ctx context.Context, s *model.RegistrationSession, u Update) error

// buildRoutes maps (step, update kind) to a handler and checks that every
// collecting step is reachable by at least one kind.
func (b *BotFacade) buildRoutes() (map[routeKey]stepHandler, error) {
	routes := map[routeKey]stepHandler{
		{model.StepWaitingTitle, KindText}:       b.textStep(func(d *model.AdDraft, v string) { d.Title = v }),
		{model.StepWaitingDescription, KindText}: b.textStep(func(d *model.AdDraft, v string) { d.Description = v }),

		{model.StepWaitingImages, KindPhoto}: b.onImage,
		{model.StepWaitingImages, KindText}:  b.onImagesText,

		{model.StepWaitingCategory, KindButton}:  b.choiceStep(model.IsValidCategory, func(d *model.AdDraft, v string) { d.Category = v }),
		{model.StepWaitingCondition, KindButton}: b.choiceStep(model.IsValidCondition, func(d *model.AdDraft, v string) { d.Condition = v }),

		{model.StepWaitingBrand, KindText}:    b.textStep(func(d *model.AdDraft, v string) { d.Brand = v }),
		{model.StepWaitingProvince, KindText}: b.textStep(func(d *model.AdDraft, v string) { d.Province = v }),
		{model.StepWaitingCity, KindText}:     b.textStep(func(d *model.AdDraft, v string) { d.City = v }),

		{model.StepWaitingLocation, KindLocation}: b.onLocation,
		{model.StepWaitingLocation, KindButton}:   b.onSkipLocation,

		{model.StepWaitingPrice, KindText}: b.onPrice,

		{model.StepWaitingConfirmation, KindButton}: b.onConfirm,
	}
	if err := checkRoutes(routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func checkRoutes(routes map[routeKey]stepHandler) error {
	covered := map[model.RegistrationStep]bool{}
	for k, h := range routes {
		if h == nil {
			return fmt.Errorf("route %s/%s: nil handler", k.step, k.kind)
		}
		if !k.step.Valid() || k.step == model.StepNone || k.step.Terminal() {
			return fmt.Errorf("route %s/%s: not a collecting step", k.step, k.kind)
		}
		covered[k.step] = true
	}
	for _, st := range model.RegistrationSteps() {
		if !covered[st] {
			return fmt.Errorf("step %s has no route", st)
		}
	}
	return nil
}
