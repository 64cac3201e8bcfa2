package network

import "github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"

type PropertiesSent struct {
	ID         string              `json:"id"`
	Properties entities.Properties `json:"properties"`
}

type PropertyUpdateMessage struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

type PropertyAck struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Value   interface{} `json:"value"`
	Success bool        `json:"success"`
}

type CommandMessage struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

type CommandReply struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Status string      `json:"status"`
	Value  interface{} `json:"value,omitempty"`
	Error  string      `json:"error,omitempty"`
}
