/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package users

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomoncle/baserepo/repository"
	"github.com/tomoncle/baserepo/types"
	"github.com/tomoncle/baserepo/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
	ErrEmailTaken         = errors.New("email already registered")
)

type CreateUserInput struct {
	UserName    string           `json:"userName" validate:"required,min=2,max=64"`
	Email       string           `json:"email" validate:"required,email"`
	Password    string           `json:"password" validate:"required,min=8,max=72"`
	Phone       string           `json:"phone" validate:"omitempty,max=32"`
	Address     string           `json:"address" validate:"omitempty,max=255"`
	Role        string           `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	Settings    types.JsonObject `json:"settings"`
	InvitedByID string           `json:"invitedById" validate:"omitempty,uuid"`
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	UserName *string          `json:"userName" validate:"omitempty,min=2,max=64"`
	Email    *string          `json:"email" validate:"omitempty,email"`
	Password *string          `json:"password" validate:"omitempty,min=8,max=72"`
	Phone    *string          `json:"phone" validate:"omitempty,max=32"`
	Address  *string          `json:"address" validate:"omitempty,max=255"`
	Role     *string          `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	Status   *string          `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Settings types.JsonObject `json:"settings"`
}

// ListQuery holds the list filters accepted on GET /users. Sort takes
// column names, e.g. "-created_at,user_name".
type ListQuery struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Status   string `query:"status"`
	Role     string `query:"role"`
	Search   string `query:"search"`
	Sort     string `query:"sort"`
	Populate string `query:"populate"`
}

type Service struct {
	repo       Repository
	validator  *utils.Validator
	logger     *logrus.Logger
	bcryptCost int
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:       repo,
		validator:  utils.NewValidator(),
		logger:     utils.NewLogger("USERS"),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register validates in, checks the inviter and stores a new inactive user
// with a hashed password.
func (s *Service) Register(ctx context.Context, in CreateUserInput) (*User, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		UserName:    in.UserName,
		Email:       in.Email,
		Password:    string(hash),
		Phone:       in.Phone,
		Address:     in.Address,
		Role:        Role(in.Role),
		Settings:    in.Settings,
		InvitedByID: in.InvitedByID,
	}

	var created *User
	err = s.repo.DB().RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := NewRepository(tx)
		existing, err := repo.FindByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
		if user.InvitedByID != "" {
			_, err := repo.FindByID(ctx, user.InvitedByID, &repository.ReadOptions{Columns: []string{"id"}})
			if errors.Is(err, repository.ErrNotFound) {
				return repository.NewError(repository.KindBadInput, "unknown inviter "+user.InvitedByID, err)
			}
			if err != nil {
				return err
			}
		}
		created, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"id": created.ID, "email": created.Email}).Info("user registered")
	return created, nil
}

// Get returns the user under id with populates resolved, or a not-found error.
func (s *Service) Get(ctx context.Context, id string, populates ...string) (*User, error) {
	return s.repo.FindByID(ctx, id, nil, populates...)
}

func (s *Service) List(ctx context.Context, q ListQuery) (*types.Pagination[User], error) {
	filter := types.Where()
	if q.Status != "" {
		status, ok := ParseStatus(q.Status)
		if !ok {
			return nil, repository.NewError(repository.KindBadInput, "unknown status "+q.Status, nil)
		}
		filter = filter.And(types.Eq("status", status))
	}
	if q.Role != "" {
		role, ok := ParseRole(q.Role)
		if !ok {
			return nil, repository.NewError(repository.KindBadInput, "unknown role "+q.Role, nil)
		}
		filter = filter.And(types.Eq("role", role))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		filter = filter.And(types.Raw("(LOWER(u.user_name) LIKE ? ESCAPE '!' OR u.email LIKE ? ESCAPE '!')", pattern, pattern))
	}
	sorts, err := types.ParseSorts(q.Sort)
	if err != nil {
		return nil, repository.NewError(repository.KindBadInput, "invalid sort", err)
	}
	if len(sorts) == 0 {
		sorts = []types.Sort{types.Desc("created_at")}
	}
	page := types.NewPageRequest(q.Page, q.PageSize, filter, sorts)
	if q.Populate != "" {
		page.WithPopulate(strings.Split(q.Populate, ",")...)
	}
	return s.repo.Paginate(ctx, page)
}

// Update applies the non-nil fields of in. A new password is hashed first.
func (s *Service) Update(ctx context.Context, id string, in UpdateUserInput) (*User, error) {
	if in.UserName != nil {
		name := strings.TrimSpace(*in.UserName)
		in.UserName = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	update := types.Update{}
	if in.UserName != nil {
		update["user_name"] = *in.UserName
	}
	if in.Email != nil {
		update["email"] = *in.Email
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		update["password"] = string(hash)
	}
	if in.Phone != nil {
		update["phone"] = *in.Phone
	}
	if in.Address != nil {
		update["address"] = *in.Address
	}
	if in.Role != nil {
		update["role"] = Role(*in.Role)
	}
	if in.Status != nil {
		update["status"] = Status(*in.Status)
	}
	if in.Settings != nil {
		update["settings"] = in.Settings
	}
	return s.updateByID(ctx, id, update)
}

// Activate marks the user active.
func (s *Service) Activate(ctx context.Context, id string) (*User, error) {
	return s.updateByID(ctx, id, types.Update{"status": StatusActive})
}

func (s *Service) updateByID(ctx context.Context, id string, update types.Update) (*User, error) {
	user, err := s.repo.UpdateByID(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, repository.NewError(repository.KindNotFound, "Not found id: "+id, nil)
	}
	return user, nil
}

// Delete removes the user and returns it; deleting an unknown id is a
// not-found error.
func (s *Service) Delete(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.RemoveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, repository.NewError(repository.KindNotFound, "Not found id: "+id, nil)
	}
	s.logger.WithField("id", id).Info("user deleted")
	return user, nil
}

func (s *Service) CountByStatus(ctx context.Context) (*types.Pagination[StatusCount], error) {
	page := types.NewPageRequestWithOrders(types.DefaultPage, types.MaxPageSize, []types.Sort{types.Asc("status")})
	return s.repo.CountByStatus(ctx, page)
}

// Authenticate checks email and password of an active user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.WithField("id", user.ID).Warn("password mismatch")
		return nil, ErrInvalidCredentials
	}
	if user.Status != StatusActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// likeEscaper quotes LIKE wildcards for ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
