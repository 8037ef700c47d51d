package config

// Schema is the JSON schema for validating job configuration files
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "properties": {
        "uri": {
            "type": "string",
            "minLength": 1,
            "description": "Object key or prefix inside the bucket"
        },
        "bucket": {
            "type": "string"
        },
        "access_key": {
            "type": "string"
        },
        "secret_key": {
            "type": "string"
        },
        "destination_dir": {
            "type": "string"
        },
        "endpoint": {
            "type": "string"
        },
        "region": {
            "type": "string"
        },
        "force_path_style": {
            "type": "boolean"
        },
        "source_type": {
            "type": "string",
            "enum": ["s3", "backblaze", "ssh", "local"]
        },
        "log_level": {
            "type": "string",
            "enum": ["debug", "info", "warn", "error"]
        },
        "log_format": {
            "type": "string",
            "enum": ["json", "console"]
        }
    },
    "required": ["uri"],
    "additionalProperties": false
}`
