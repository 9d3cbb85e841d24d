package integration

import (
	"time"

	"github.com/cucumber/godog"

	"github.com/territoryops/recon/pkg/server/middleware"
)

func (s *StepsContext) registerAuthSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am "([^"]*)" with role "([^"]*)"$`, s.iAmWithRole)
	sc.Step(`^I am "([^"]*)" with role "([^"]*)" in region "([^"]*)"$`, s.iAmWithRoleInRegion)
	sc.Step(`^I am not authenticated$`, s.iAmNotAuthenticated)
	sc.Step(`^I use an expired token for "([^"]*)"$`, s.iUseAnExpiredToken)
	sc.Step(`^I use a token for "([^"]*)" signed with "([^"]*)"$`, s.iUseATokenSignedWith)
}

func (s *StepsContext) iAmWithRole(userID, role string) error {
	return s.iAmWithRoleInRegion(userID, role, "")
}

func (s *StepsContext) iAmWithRoleInRegion(userID, role, region string) error {
	return s.setToken(testJWTSecret, userID, role, region, time.Hour)
}

func (s *StepsContext) iAmNotAuthenticated() error {
	s.authHeader = ""
	return nil
}

func (s *StepsContext) iUseAnExpiredToken(userID string) error {
	return s.setToken(testJWTSecret, userID, "revops", "", -time.Minute)
}

func (s *StepsContext) iUseATokenSignedWith(userID, secret string) error {
	return s.setToken(secret, userID, "revops", "", time.Hour)
}

func (s *StepsContext) setToken(secret, userID, role, region string, ttl time.Duration) error {
	token, err := middleware.NewToken(secret, userID, role, region, ttl)
	if err != nil {
		return err
	}
	s.authHeader = "Bearer " + token
	return nil
}
