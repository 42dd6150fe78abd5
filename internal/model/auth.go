package model

import "time"

type LoginRequest struct {
	OrgCode    string `json:"orgCode" binding:"required"`
	EmployeeID string `json:"employeeId" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token        string        `json:"token"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	User         *User         `json:"user"`
	Organization *Organization `json:"organization"`
}
